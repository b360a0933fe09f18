package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

const (
	JobReminders = "reminders"
	JobDigest    = "digest"
)

// NotifierService runs the daily reminder and digest jobs. Both take the
// clock reading explicitly; day boundaries are computed in loc.
type NotifierService struct {
	appointments ports.AppointmentRepository
	patients     ports.PatientRepository
	doctors      ports.DoctorRepository
	profiles     *ProfileService
	notifier     ports.Notifier
	loc          *time.Location
	log          zerolog.Logger
}

func NewNotifierService(
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	profiles *ProfileService,
	notifier ports.Notifier,
	loc *time.Location,
	log zerolog.Logger,
) *NotifierService {
	if loc == nil {
		loc = time.UTC
	}
	return &NotifierService{
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		profiles:     profiles,
		notifier:     notifier,
		loc:          loc,
		log:          log.With().Str("component", "notifier").Logger(),
	}
}

// RunReminders mails every patient with an active appointment tomorrow that
// has not been reminded yet, then flags the appointment. A failed send leaves
// the flag unset so the next run retries.
func (s *NotifierService) RunReminders(ctx context.Context, now time.Time) (report *ports.JobReport, err error) {
	start := time.Now()
	report = &ports.JobReport{Job: JobReminders}
	defer func() { s.observe(JobReminders, start, err) }()

	from := domain.DayOf(now, s.loc).AddDate(0, 0, 1)
	notSent := false
	list, _, err := s.appointments.List(ctx, ports.AppointmentFilter{
		Statuses:     domain.ActiveAppointmentStatuses,
		From:         from,
		To:           from.AddDate(0, 0, 1),
		ReminderSent: &notSent,
	})
	if err != nil {
		return nil, fmt.Errorf("reminders: list appointments: %w", err)
	}
	report.Scanned = len(list)

	patients, doctors, err := s.participants(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("reminders: %w", err)
	}

	for _, a := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		patient := patients[a.PatientID]
		if patient == nil || patient.Email == "" {
			report.Skipped++
			s.log.Warn().Str("job", JobReminders).Str("appointment_id", a.ID).Msg("patient has no email, reminder skipped")
			continue
		}

		err := s.notifier.SendAppointmentReminder(ctx, noticeFor(a, patient, doctors[a.DoctorID]))
		recordNotification("appointment_reminder", err)
		if err != nil {
			report.Failed++
			s.log.Warn().Err(err).Str("job", JobReminders).Str("appointment_id", a.ID).Msg("reminder send failed")
			continue
		}
		report.Sent++
		if err := s.appointments.MarkReminderSent(ctx, a.ID); err != nil {
			s.log.Warn().Err(err).Str("job", JobReminders).Str("appointment_id", a.ID).Msg("reminder sent but not flagged")
		}
	}

	s.log.Info().
		Str("job", JobReminders).
		Time("day", from).
		Int("scanned", report.Scanned).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("reminder run finished")
	return report, nil
}

// RunDigest mails each doctor the list of today's active appointments.
// Doctors without appointments get nothing. Doctors whose linked user is
// missing from the identity directory, or who have no email, are skipped.
// When the directory cannot be reached the stored profile data is used.
func (s *NotifierService) RunDigest(ctx context.Context, now time.Time) (report *ports.JobReport, err error) {
	start := time.Now()
	report = &ports.JobReport{Job: JobDigest}
	defer func() { s.observe(JobDigest, start, err) }()

	day := domain.DayOf(now, s.loc)
	list, _, err := s.appointments.List(ctx, ports.AppointmentFilter{
		Statuses: domain.ActiveAppointmentStatuses,
		From:     day,
		To:       day.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("digest: list appointments: %w", err)
	}

	byDoctor := map[string][]*domain.Appointment{}
	for _, a := range list {
		byDoctor[a.DoctorID] = append(byDoctor[a.DoctorID], a)
	}
	patients, doctors, err := s.participants(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("digest: %w", err)
	}

	doctorIDs := make([]string, 0, len(byDoctor))
	for id := range byDoctor {
		doctorIDs = append(doctorIDs, id)
	}
	sort.Strings(doctorIDs)
	report.Scanned = len(doctorIDs)
	linked, checked := s.linkedUsers(ctx, doctors)

	for _, id := range doctorIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doctor := doctors[id]
		if doctor == nil || doctor.UserID == "" {
			report.Skipped++
			s.log.Warn().Str("job", JobDigest).Str("doctor_id", id).Msg("doctor has no linked user, digest skipped")
			continue
		}
		email := doctor.Email
		if checked {
			user, ok := linked[doctor.UserID]
			if !ok {
				report.Skipped++
				s.log.Warn().Str("job", JobDigest).Str("doctor_id", id).Str("user_id", doctor.UserID).
					Msg("linked user no longer exists, digest skipped")
				continue
			}
			if user.Email != "" {
				email = user.Email
			}
		}
		if email == "" {
			report.Skipped++
			s.log.Warn().Str("job", JobDigest).Str("doctor_id", id).Msg("doctor has no email, digest skipped")
			continue
		}

		appts := byDoctor[id]
		sort.Slice(appts, func(i, j int) bool { return appts[i].StartTime < appts[j].StartTime })
		entries := make([]ports.DigestEntry, 0, len(appts))
		for _, a := range appts {
			entry := ports.DigestEntry{StartTime: a.StartTime, EndTime: a.EndTime, Reason: a.Reason, Status: string(a.Status)}
			if p := patients[a.PatientID]; p != nil {
				entry.PatientName = p.FullName()
			}
			entries = append(entries, entry)
		}

		err := s.notifier.SendDoctorDigest(ctx, email, doctor.FullName(), day, entries)
		recordNotification("doctor_digest", err)
		if err != nil {
			report.Failed++
			s.log.Warn().Err(err).Str("job", JobDigest).Str("doctor_id", id).Msg("digest send failed")
			continue
		}
		report.Sent++
	}

	s.log.Info().
		Str("job", JobDigest).
		Time("day", day).
		Int("scanned", report.Scanned).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("skipped", report.Skipped).
		Msg("digest run finished")
	return report, nil
}

// linkedUsers looks up the doctors' user ids in one directory call. checked
// is false when no directory is configured or the call failed.
func (s *NotifierService) linkedUsers(ctx context.Context, doctors map[string]*domain.DoctorProfile) (users map[string]domain.UserBasic, checked bool) {
	if s.profiles == nil || s.profiles.directory == nil {
		return nil, false
	}
	ids := make([]string, 0, len(doctors))
	for _, d := range doctors {
		if d != nil && d.UserID != "" {
			ids = append(ids, d.UserID)
		}
	}
	if len(ids) == 0 {
		return nil, false
	}
	sort.Strings(ids)

	found, err := s.profiles.directory.FetchBasicInfo(ctx, ids)
	if err != nil {
		s.log.Warn().Err(err).Str("job", JobDigest).Msg("identity directory unavailable, using stored doctor emails")
		return nil, false
	}
	users = make(map[string]domain.UserBasic, len(found))
	for _, u := range found {
		users[u.ID] = u
	}
	return users, true
}

func (s *NotifierService) participants(ctx context.Context, list []*domain.Appointment) (map[string]*domain.PatientProfile, map[string]*domain.DoctorProfile, error) {
	patientIDs := make([]string, 0, len(list))
	doctorIDs := make([]string, 0, len(list))
	for _, a := range list {
		patientIDs = append(patientIDs, a.PatientID)
		doctorIDs = append(doctorIDs, a.DoctorID)
	}

	patients := map[string]*domain.PatientProfile{}
	if ids := uniqueNonEmpty(patientIDs); len(ids) > 0 {
		found, err := s.patients.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("load patients: %w", err)
		}
		for _, p := range found {
			patients[p.ID] = s.profiles.RepairPatientProfile(ctx, p)
		}
	}
	doctors := map[string]*domain.DoctorProfile{}
	if ids := uniqueNonEmpty(doctorIDs); len(ids) > 0 {
		found, err := s.doctors.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("load doctors: %w", err)
		}
		for _, d := range found {
			doctors[d.ID] = d
		}
	}
	return patients, doctors, nil
}

func (s *NotifierService) observe(job string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.JobRunsTotal.WithLabelValues(job, result).Inc()
	metrics.JobDuration.WithLabelValues(job).Observe(time.Since(start).Seconds())
}
