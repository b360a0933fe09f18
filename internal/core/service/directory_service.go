package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// DirectoryService serves listings, dashboards and the admin read views of
// the medical service.
type DirectoryService struct {
	appointments ports.AppointmentRepository
	patients     ports.PatientRepository
	doctors      ports.DoctorRepository
	results      ports.TestResultRepository
	referrals    ports.ReferralRepository
	profiles     *ProfileService
	booking      *AppointmentService
	directory    ports.IdentityDirectory // nil when the auth service is not reachable
	loc          *time.Location
	log          zerolog.Logger
	now          func() time.Time
}

func NewDirectoryService(
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	results ports.TestResultRepository,
	referrals ports.ReferralRepository,
	profiles *ProfileService,
	booking *AppointmentService,
	directory ports.IdentityDirectory,
	loc *time.Location,
	log zerolog.Logger,
) *DirectoryService {
	if loc == nil {
		loc = time.UTC
	}
	return &DirectoryService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		results:      results,
		referrals:    referrals,
		profiles:     profiles,
		booking:      booking,
		directory:    directory,
		loc:          loc,
		log:          log,
		now:          time.Now,
	}
}

func (s *DirectoryService) ListDoctors(ctx context.Context, filter ports.ProfileFilter) (*ports.Page[*domain.DoctorProfile], error) {
	filter.Page, filter.Limit = ports.ClampPage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Specialty = strings.TrimSpace(filter.Specialty)
	list, total, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return ports.NewPage(list, total, filter.Page, filter.Limit), nil
}

func (s *DirectoryService) today() (time.Time, time.Time) {
	from := domain.DayOf(s.now(), s.loc)
	return from, from.AddDate(0, 0, 1)
}

func (s *DirectoryService) PatientDashboard(ctx context.Context, caller domain.Identity) (*ports.PatientStats, error) {
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	from, _ := s.today()

	var stats ports.PatientStats
	if stats.UpcomingAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{
		PatientID: patient.ID, Statuses: domain.ActiveAppointmentStatuses, From: from,
	}); err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	if stats.CompletedAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{
		PatientID: patient.ID, Statuses: []domain.AppointmentStatus{domain.AppointmentCompleted},
	}); err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	if stats.TotalAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{PatientID: patient.ID}); err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	if stats.TestResults, err = s.results.CountByPatient(ctx, patient.ID); err != nil {
		return nil, fmt.Errorf("patient dashboard: %w", err)
	}
	return &stats, nil
}

func (s *DirectoryService) DoctorDashboard(ctx context.Context, caller domain.Identity) (*ports.DoctorStats, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	from, to := s.today()

	var stats ports.DoctorStats
	if stats.TodayAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{
		DoctorID: doctor.ID, From: from, To: to,
	}); err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	if stats.UpcomingAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{
		DoctorID: doctor.ID, Statuses: domain.ActiveAppointmentStatuses, From: from,
	}); err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	if stats.CompletedAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{
		DoctorID: doctor.ID, Statuses: []domain.AppointmentStatus{domain.AppointmentCompleted},
	}); err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	ids, err := s.appointments.PatientIDsForDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	stats.TotalPatients = int64(len(ids))
	if stats.PendingReferrals, err = s.referrals.CountPendingForDoctor(ctx, doctor.ID); err != nil {
		return nil, fmt.Errorf("doctor dashboard: %w", err)
	}
	return &stats, nil
}

// DoctorPatients lists patients who have at least one appointment with the caller.
func (s *DirectoryService) DoctorPatients(ctx context.Context, caller domain.Identity, search string) ([]*domain.PatientProfile, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	ids, err := s.appointments.PatientIDsForDoctor(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("doctor patients: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.PatientProfile{}, nil
	}
	list, _, err := s.patients.List(ctx, ports.ProfileFilter{IDs: ids, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, fmt.Errorf("doctor patients: %w", err)
	}
	for i, p := range list {
		list[i] = s.profiles.RepairPatientProfile(ctx, p)
	}
	return list, nil
}

func (s *DirectoryService) DoctorPatientDetails(ctx context.Context, caller domain.Identity, patientID string) (*ports.PatientDetails, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	met, err := s.appointments.HaveMet(ctx, doctor.ID, patientID)
	if err != nil {
		return nil, fmt.Errorf("doctor patient details: %w", err)
	}
	if !met {
		return nil, fmt.Errorf("%w: patient has no appointment with this doctor", domain.ErrForbidden)
	}
	return s.patientDetails(ctx, patientID, doctor.ID)
}

// AdminStats combines local counts with the auth service role counts. An
// unreachable auth service leaves Users empty.
func (s *DirectoryService) AdminStats(ctx context.Context) (*ports.AdminStats, error) {
	var (
		stats ports.AdminStats
		err   error
	)
	if stats.Patients, err = s.patients.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	if stats.Doctors, err = s.doctors.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	if stats.Appointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{}); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	from, to := s.today()
	if stats.TodayAppointments, err = s.appointments.Count(ctx, ports.AppointmentFilter{From: from, To: to}); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	if stats.TestResults, err = s.results.Count(ctx); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	if s.directory != nil {
		users, err := s.directory.UserStats(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("auth user stats unavailable")
		} else {
			stats.Users = users
		}
	}
	return &stats, nil
}

func (s *DirectoryService) AdminPatients(ctx context.Context, filter ports.ProfileFilter) (*ports.Page[*domain.PatientProfile], error) {
	filter.Page, filter.Limit = ports.ClampPage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)
	list, total, err := s.patients.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin patients: %w", err)
	}
	for i, p := range list {
		list[i] = s.profiles.RepairPatientProfile(ctx, p)
	}
	return ports.NewPage(list, total, filter.Page, filter.Limit), nil
}

func (s *DirectoryService) AdminDoctors(ctx context.Context, filter ports.ProfileFilter) (*ports.Page[*domain.DoctorProfile], error) {
	filter.Page, filter.Limit = ports.ClampPage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)
	list, total, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin doctors: %w", err)
	}
	return ports.NewPage(list, total, filter.Page, filter.Limit), nil
}

func (s *DirectoryService) AdminPatientDetails(ctx context.Context, patientID string) (*ports.PatientDetails, error) {
	return s.patientDetails(ctx, patientID, "")
}

func (s *DirectoryService) AdminDoctorDetails(ctx context.Context, doctorID string) (*ports.DoctorDetails, error) {
	doctor, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	list, _, err := s.appointments.List(ctx, ports.AppointmentFilter{DoctorID: doctor.ID})
	if err != nil {
		return nil, fmt.Errorf("doctor details: %w", err)
	}
	views, err := s.booking.hydrate(ctx, list, true, false)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		v.Doctor = doctor.Summary()
	}
	return &ports.DoctorDetails{Doctor: doctor, Appointments: views}, nil
}

// patientDetails loads a patient with appointments and results. A non-empty
// doctorID restricts appointments to that doctor.
func (s *DirectoryService) patientDetails(ctx context.Context, patientID, doctorID string) (*ports.PatientDetails, error) {
	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	patient = s.profiles.RepairPatientProfile(ctx, patient)

	list, _, err := s.appointments.List(ctx, ports.AppointmentFilter{PatientID: patient.ID, DoctorID: doctorID})
	if err != nil {
		return nil, fmt.Errorf("patient details: %w", err)
	}
	views, err := s.booking.hydrate(ctx, list, false, true)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		v.Patient = patient.Summary()
	}

	results, err := s.results.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("patient details: %w", err)
	}
	if results == nil {
		results = []*domain.TestResult{}
	}
	return &ports.PatientDetails{Patient: patient, Appointments: views, TestResults: results}, nil
}
