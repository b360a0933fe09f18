package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// AppointmentService books appointments for patients and records
// consultations for doctors.
type AppointmentService struct {
	appointments ports.AppointmentRepository
	patients     ports.PatientRepository
	doctors      ports.DoctorRepository
	profiles     *ProfileService
	notifier     ports.Notifier
	log          zerolog.Logger
	loc          *time.Location
	now          func() time.Time
}

// NewAppointmentService wires booking. loc decides which calendar day "today"
// is; nil means UTC.
func NewAppointmentService(
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	profiles *ProfileService,
	notifier ports.Notifier,
	loc *time.Location,
	log zerolog.Logger,
) *AppointmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		profiles:     profiles,
		notifier:     notifier,
		log:          log,
		loc:          loc,
		now:          time.Now,
	}
}

// Book creates a scheduled appointment. The slot check and the insert are
// separate steps, so two concurrent bookings of a free slot can both succeed.
func (s *AppointmentService) Book(ctx context.Context, caller domain.Identity, in ports.BookAppointmentInput) (*ports.AppointmentView, error) {
	if err := s.validateBooking(in); err != nil {
		return nil, err
	}
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.FindByID(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	day := domain.DayOf(in.Date, time.UTC)
	taken, err := s.appointments.SlotTaken(ctx, doctor.ID, day, in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	if taken {
		metrics.AppointmentsBookedTotal.WithLabelValues("slot_taken").Inc()
		return nil, domain.ErrSlotTaken
	}

	now := s.now().UTC()
	symptoms := in.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	a := &domain.Appointment{
		ID:           uuid.NewString(),
		PatientID:    patient.ID,
		DoctorID:     doctor.ID,
		Date:         day,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Status:       domain.AppointmentScheduled,
		Reason:       strings.TrimSpace(in.Reason),
		Symptoms:     symptoms,
		Prescription: []domain.PrescriptionItem{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	metrics.AppointmentsBookedTotal.WithLabelValues("booked").Inc()
	s.log.Info().
		Str("appointment_id", a.ID).
		Str("patient_id", patient.ID).
		Str("doctor_id", doctor.ID).
		Time("date", day).
		Str("start_time", a.StartTime).
		Msg("appointment booked")

	err = s.notifier.SendAppointmentConfirmation(ctx, noticeFor(a, patient, doctor))
	recordNotification("appointment_confirmation", err)
	if err != nil {
		s.log.Warn().Err(err).Str("appointment_id", a.ID).Msg("confirmation mail failed")
	}

	return &ports.AppointmentView{Appointment: a, Patient: patient.Summary(), Doctor: doctor.Summary()}, nil
}

func (s *AppointmentService) validateBooking(in ports.BookAppointmentInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(in.DoctorID) == "" {
		fields["doctorId"] = "doctorId is required"
	}
	if in.Date.IsZero() {
		fields["date"] = "date is required"
	} else if domain.DayOf(in.Date, time.UTC).Before(domain.DayOf(s.now(), s.loc)) {
		fields["date"] = "date cannot be in the past"
	}
	if !domain.ValidClock(in.StartTime) {
		fields["startTime"] = "startTime must be HH:MM"
	}
	if !domain.ValidClock(in.EndTime) {
		fields["endTime"] = "endTime must be HH:MM"
	} else if domain.ValidClock(in.StartTime) && in.EndTime <= in.StartTime {
		fields["endTime"] = "endTime must be after startTime"
	}
	if strings.TrimSpace(in.Reason) == "" {
		fields["reason"] = "reason is required"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (s *AppointmentService) ListForPatient(ctx context.Context, caller domain.Identity, status string) ([]*ports.AppointmentView, error) {
	statuses, err := parseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	list, _, err := s.appointments.List(ctx, ports.AppointmentFilter{PatientID: patient.ID, Statuses: statuses})
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	views, err := s.hydrate(ctx, list, false, true)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		v.Patient = patient.Summary()
	}
	return views, nil
}

// Cancel moves the caller's own appointment to cancelled. Appointments in a
// terminal state are left unchanged.
func (s *AppointmentService) Cancel(ctx context.Context, caller domain.Identity, appointmentID, reason string) (*domain.Appointment, error) {
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patient.ID {
		return nil, domain.ErrAppointmentNotFound
	}
	if !a.Status.CanTransitionTo(domain.AppointmentCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel a %s appointment", domain.ErrInvalidTransition, a.Status)
	}

	a.Status = domain.AppointmentCancelled
	a.CancelReason = strings.TrimSpace(reason)
	a.UpdatedAt = s.now().UTC()
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}
	s.log.Info().Str("appointment_id", a.ID).Str("patient_id", patient.ID).Msg("appointment cancelled")
	return a, nil
}

func (s *AppointmentService) ListForDoctor(ctx context.Context, caller domain.Identity, q ports.DoctorAppointmentQuery) ([]*ports.AppointmentView, error) {
	statuses, err := parseStatusFilter(q.Status)
	if err != nil {
		return nil, err
	}
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	filter := ports.AppointmentFilter{DoctorID: doctor.ID, Statuses: statuses}
	if q.Date != nil {
		filter.From = domain.DayOf(*q.Date, time.UTC)
		filter.To = filter.From.AddDate(0, 0, 1)
	}
	list, _, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list doctor appointments: %w", err)
	}
	views, err := s.hydrate(ctx, list, true, false)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		v.Doctor = doctor.Summary()
	}
	return views, nil
}

// Today lists the doctor's appointments on the current calendar day in the
// configured location.
func (s *AppointmentService) Today(ctx context.Context, caller domain.Identity) ([]*ports.AppointmentView, error) {
	day := domain.DayOf(s.now(), s.loc)
	return s.ListForDoctor(ctx, caller, ports.DoctorAppointmentQuery{Date: &day})
}

// UpdateConsultation records the doctor's notes and moves the status along
// the state machine. Same-status updates only change the clinical fields;
// cancelled and no-show appointments cannot be edited.
func (s *AppointmentService) UpdateConsultation(ctx context.Context, caller domain.Identity, appointmentID string, in ports.ConsultationUpdate) (*domain.Appointment, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.FindByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctor.ID {
		return nil, domain.ErrAppointmentNotFound
	}
	if a.Status == domain.AppointmentCancelled || a.Status == domain.AppointmentNoShow {
		return nil, fmt.Errorf("%w: appointment is %s", domain.ErrInvalidTransition, a.Status)
	}

	if in.Status != "" {
		next := domain.AppointmentStatus(in.Status)
		if !next.Valid() {
			return nil, domain.NewValidationError("status", "unknown appointment status")
		}
		if next != a.Status {
			if !a.Status.CanTransitionTo(next) {
				return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, a.Status, next)
			}
			s.log.Info().
				Str("appointment_id", a.ID).
				Str("from", string(a.Status)).
				Str("to", string(next)).
				Msg("appointment status changed")
			a.Status = next
		}
	}
	if in.Diagnosis != nil {
		a.Diagnosis = strings.TrimSpace(*in.Diagnosis)
	}
	if in.Prescription != nil {
		a.Prescription = in.Prescription
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.FollowUp != nil {
		a.FollowUp = in.FollowUp
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update consultation: %w", err)
	}
	return a, nil
}

func (s *AppointmentService) AdminList(ctx context.Context, filter ports.AppointmentFilter) (*ports.Page[*ports.AppointmentView], error) {
	filter.Page, filter.Limit = ports.ClampPage(filter.Page, filter.Limit)
	list, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("admin list appointments: %w", err)
	}
	views, err := s.hydrate(ctx, list, true, true)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(views, total, filter.Page, filter.Limit), nil
}

// hydrate attaches patient and doctor summaries. Patient profiles missing
// basic fields are repaired from the auth service on the way out.
func (s *AppointmentService) hydrate(ctx context.Context, list []*domain.Appointment, withPatient, withDoctor bool) ([]*ports.AppointmentView, error) {
	views := make([]*ports.AppointmentView, 0, len(list))
	if len(list) == 0 {
		return views, nil
	}

	patients := map[string]*domain.PatientProfile{}
	if withPatient {
		ids := make([]string, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.PatientID)
		}
		found, err := s.patients.FindByIDs(ctx, uniqueNonEmpty(ids))
		if err != nil {
			return nil, fmt.Errorf("hydrate patients: %w", err)
		}
		for _, p := range found {
			patients[p.ID] = s.profiles.RepairPatientProfile(ctx, p)
		}
	}

	doctors := map[string]*domain.DoctorProfile{}
	if withDoctor {
		ids := make([]string, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.DoctorID)
		}
		found, err := s.doctors.FindByIDs(ctx, uniqueNonEmpty(ids))
		if err != nil {
			return nil, fmt.Errorf("hydrate doctors: %w", err)
		}
		for _, d := range found {
			doctors[d.ID] = d
		}
	}

	for _, a := range list {
		views = append(views, &ports.AppointmentView{
			Appointment: a,
			Patient:     patients[a.PatientID].Summary(),
			Doctor:      doctors[a.DoctorID].Summary(),
		})
	}
	return views, nil
}

func parseStatusFilter(status string) ([]domain.AppointmentStatus, error) {
	status = strings.TrimSpace(status)
	if status == "" || status == "all" {
		return nil, nil
	}
	st := domain.AppointmentStatus(status)
	if !st.Valid() {
		return nil, domain.NewValidationError("status", "unknown appointment status")
	}
	return []domain.AppointmentStatus{st}, nil
}

func noticeFor(a *domain.Appointment, p *domain.PatientProfile, d *domain.DoctorProfile) ports.AppointmentNotice {
	n := ports.AppointmentNotice{
		Date:      a.Date,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Reason:    a.Reason,
	}
	if p != nil {
		n.PatientName = p.FullName()
		n.PatientEmail = p.Email
	}
	if d != nil {
		n.DoctorName = d.FullName()
		n.Specialty = d.Specialty
	}
	return n
}
