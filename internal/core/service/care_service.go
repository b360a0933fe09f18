package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// CareService handles the clinical follow-up of appointments: test results,
// referrals between doctors and test recommendations.
type CareService struct {
	appointments    ports.AppointmentRepository
	patients        ports.PatientRepository
	doctors         ports.DoctorRepository
	results         ports.TestResultRepository
	referrals       ports.ReferralRepository
	recommendations ports.RecommendationRepository
	profiles        *ProfileService
	notifier        ports.Notifier
	log             zerolog.Logger
	now             func() time.Time
}

func NewCareService(
	appointments ports.AppointmentRepository,
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	results ports.TestResultRepository,
	referrals ports.ReferralRepository,
	recommendations ports.RecommendationRepository,
	profiles *ProfileService,
	notifier ports.Notifier,
	log zerolog.Logger,
) *CareService {
	return &CareService{
		appointments:    appointments,
		patients:        patients,
		doctors:         doctors,
		results:         results,
		referrals:       referrals,
		recommendations: recommendations,
		profiles:        profiles,
		notifier:        notifier,
		log:             log,
		now:             time.Now,
	}
}

// ── test results ──────────────────────────────────────────────────────────────

// RecordTestResult stores a result for a patient the doctor has seen and
// notifies the patient.
func (s *CareService) RecordTestResult(ctx context.Context, caller domain.Identity, in ports.TestResultInput) (*domain.TestResult, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.PatientID) == "" {
		fields["patientId"] = "patientId is required"
	}
	if strings.TrimSpace(in.TestName) == "" {
		fields["testName"] = "testName is required"
	}
	if strings.TrimSpace(in.TestType) == "" {
		fields["testType"] = "testType is required"
	}
	if strings.TrimSpace(in.Results) == "" {
		fields["results"] = "results is required"
	}
	status := domain.TestResultStatus(in.Status)
	if status == "" {
		status = domain.TestResultCompleted
	} else if !status.Valid() {
		fields["status"] = "status must be one of: pending completed abnormal"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.FindByID(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMet(ctx, doctor.ID, patient.ID); err != nil {
		return nil, err
	}
	appointmentID := strings.TrimSpace(in.AppointmentID)
	if appointmentID != "" {
		if err := s.requireAppointmentOf(ctx, appointmentID, doctor.ID, patient.ID); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	testDate := in.TestDate
	if testDate.IsZero() {
		testDate = now
	}
	r := &domain.TestResult{
		ID:             uuid.NewString(),
		PatientID:      patient.ID,
		DoctorID:       doctor.ID,
		AppointmentID:  appointmentID,
		TestType:       strings.TrimSpace(in.TestType),
		TestName:       strings.TrimSpace(in.TestName),
		TestDate:       testDate,
		Results:        in.Results,
		NormalRange:    in.NormalRange,
		Unit:           in.Unit,
		Status:         status,
		Interpretation: in.Interpretation,
		Notes:          in.Notes,
		CreatedAt:      now,
	}
	if err := s.results.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("record test result: %w", err)
	}
	s.log.Info().Str("test_result_id", r.ID).Str("patient_id", patient.ID).Str("doctor_id", doctor.ID).Msg("test result recorded")

	patient = s.profiles.RepairPatientProfile(ctx, patient)
	err = s.notifier.SendTestResultReady(ctx, patient.Email, patient.FullName(), r.TestName)
	recordNotification("test_result", err)
	if err != nil {
		s.log.Warn().Err(err).Str("test_result_id", r.ID).Msg("test result mail failed")
		return r, nil
	}
	if err := s.results.MarkNotified(ctx, r.ID); err != nil {
		s.log.Warn().Err(err).Str("test_result_id", r.ID).Msg("could not flag test result as notified")
	} else {
		r.NotificationSent = true
	}
	return r, nil
}

// requireAppointmentOf rejects a linked appointment that is missing or that
// belongs to another doctor or patient.
func (s *CareService) requireAppointmentOf(ctx context.Context, id, doctorID, patientID string) error {
	a, err := s.appointments.FindByID(ctx, id)
	if errors.Is(err, domain.ErrAppointmentNotFound) {
		return domain.NewValidationError("appointmentId", "appointment not found")
	}
	if err != nil {
		return err
	}
	if a.DoctorID != doctorID || a.PatientID != patientID {
		return domain.NewValidationError("appointmentId", "appointment is not between this doctor and patient")
	}
	return nil
}

func (s *CareService) PatientTestResults(ctx context.Context, caller domain.Identity) ([]*domain.TestResult, error) {
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	list, err := s.results.ListByPatient(ctx, patient.ID)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	if list == nil {
		list = []*domain.TestResult{}
	}
	return list, nil
}

// ── referrals ─────────────────────────────────────────────────────────────────

// CreateReferral refers the patient of one of the caller's appointments to
// another doctor.
func (s *CareService) CreateReferral(ctx context.Context, caller domain.Identity, in ports.ReferralInput) (*domain.Referral, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.AppointmentID) == "" {
		fields["appointmentId"] = "appointmentId is required"
	}
	if strings.TrimSpace(in.ReferredDoctorID) == "" {
		fields["referredDoctorId"] = "referredDoctorId is required"
	}
	if strings.TrimSpace(in.Reason) == "" {
		fields["reason"] = "reason is required"
	}
	if !domain.ValidReferralUrgency(in.Urgency) {
		fields["urgency"] = "urgency must be one of: low medium high urgent"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	appt, err := s.appointments.FindByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctor.ID {
		return nil, fmt.Errorf("%w: appointment belongs to another doctor", domain.ErrForbidden)
	}
	if in.ReferredDoctorID == doctor.ID {
		return nil, domain.NewValidationError("referredDoctorId", "cannot refer to yourself")
	}
	referred, err := s.doctors.FindByID(ctx, in.ReferredDoctorID)
	if err != nil {
		return nil, err
	}

	urgency := in.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	specialty := strings.TrimSpace(in.SpecialtyNeeded)
	if specialty == "" {
		specialty = referred.Specialty
	}
	now := s.now().UTC()
	ref := &domain.Referral{
		ID:                    uuid.NewString(),
		PatientID:             appt.PatientID,
		ReferringDoctorID:     doctor.ID,
		ReferredDoctorID:      referred.ID,
		OriginalAppointmentID: appt.ID,
		Reason:                strings.TrimSpace(in.Reason),
		SpecialtyNeeded:       specialty,
		Urgency:               urgency,
		Notes:                 in.Notes,
		Status:                domain.ReferralPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.referrals.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}
	s.log.Info().Str("referral_id", ref.ID).Str("from", doctor.ID).Str("to", referred.ID).Msg("referral created")

	appt.ReferralID = ref.ID
	appt.UpdatedAt = now
	if err := s.appointments.Update(ctx, appt); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("could not link referral to appointment")
	}

	patientName := ""
	patientEmail := ""
	if p, err := s.patients.FindByID(ctx, appt.PatientID); err == nil {
		p = s.profiles.RepairPatientProfile(ctx, p)
		patientName, patientEmail = p.FullName(), p.Email
	}
	err = s.notifier.SendReferral(ctx, referred.Email, referred.FullName(), patientName, ref.Reason, ref.Urgency)
	recordNotification("referral", err)
	if err != nil {
		s.log.Warn().Err(err).Str("referral_id", ref.ID).Msg("referral mail to doctor failed")
	}
	if patientEmail != "" {
		err = s.notifier.SendReferral(ctx, patientEmail, referred.FullName(), patientName, ref.Reason, ref.Urgency)
		recordNotification("referral", err)
		if err != nil {
			s.log.Warn().Err(err).Str("referral_id", ref.ID).Msg("referral mail to patient failed")
		}
	}
	return ref, nil
}

func (s *CareService) SentReferrals(ctx context.Context, caller domain.Identity) ([]*ports.ReferralView, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.listReferrals(ctx, ports.ReferralFilter{ReferringDoctorID: doctor.ID})
}

func (s *CareService) ReceivedReferrals(ctx context.Context, caller domain.Identity) ([]*ports.ReferralView, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.listReferrals(ctx, ports.ReferralFilter{ReferredDoctorID: doctor.ID})
}

func (s *CareService) PatientReferrals(ctx context.Context, caller domain.Identity) ([]*ports.ReferralView, error) {
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	return s.listReferrals(ctx, ports.ReferralFilter{PatientID: patient.ID})
}

// UpdateReferralStatus lets the referred doctor accept, decline or complete a referral.
func (s *CareService) UpdateReferralStatus(ctx context.Context, caller domain.Identity, referralID, status, notes string) (*domain.Referral, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	ref, err := s.referrals.FindByID(ctx, referralID)
	if err != nil {
		return nil, err
	}
	if ref.ReferredDoctorID != doctor.ID {
		return nil, fmt.Errorf("%w: only the referred doctor can respond", domain.ErrForbidden)
	}
	next := domain.ReferralStatus(status)
	if !ref.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: referral %s to %s", domain.ErrInvalidTransition, ref.Status, next)
	}

	now := s.now().UTC()
	ref.Status = next
	if v := strings.TrimSpace(notes); v != "" {
		ref.ResponseNotes = v
	}
	ref.RespondedAt = &now
	ref.UpdatedAt = now
	if err := s.referrals.Update(ctx, ref); err != nil {
		return nil, fmt.Errorf("update referral: %w", err)
	}
	s.log.Info().Str("referral_id", ref.ID).Str("status", status).Msg("referral status changed")
	return ref, nil
}

func (s *CareService) listReferrals(ctx context.Context, filter ports.ReferralFilter) ([]*ports.ReferralView, error) {
	list, err := s.referrals.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	patientIDs := make([]string, 0, len(list))
	doctorIDs := make([]string, 0, 2*len(list))
	for _, r := range list {
		patientIDs = append(patientIDs, r.PatientID)
		doctorIDs = append(doctorIDs, r.ReferringDoctorID, r.ReferredDoctorID)
	}
	patients, doctors, err := s.summaries(ctx, patientIDs, doctorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*ports.ReferralView, 0, len(list))
	for _, r := range list {
		views = append(views, &ports.ReferralView{
			Referral:        r,
			Patient:         patients[r.PatientID],
			ReferringDoctor: doctors[r.ReferringDoctorID],
			ReferredDoctor:  doctors[r.ReferredDoctorID],
		})
	}
	return views, nil
}

// ── test recommendations ──────────────────────────────────────────────────────

func (s *CareService) CreateRecommendation(ctx context.Context, caller domain.Identity, in ports.RecommendationInput) (*domain.TestRecommendation, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.AppointmentID) == "" {
		fields["appointmentId"] = "appointmentId is required"
	}
	if len(in.Tests) == 0 {
		fields["tests"] = "at least one test is required"
	}
	for i, t := range in.Tests {
		key := fmt.Sprintf("tests[%d]", i)
		switch {
		case strings.TrimSpace(t.Name) == "":
			fields[key] = "name is required"
		case !domain.ValidTestUrgency(t.Urgency):
			fields[key] = "urgency must be one of: routine urgent stat"
		}
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	appt, err := s.appointments.FindByID(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctor.ID {
		return nil, fmt.Errorf("%w: appointment belongs to another doctor", domain.ErrForbidden)
	}

	tests := make([]domain.RecommendedTest, 0, len(in.Tests))
	names := make([]string, 0, len(in.Tests))
	for _, t := range in.Tests {
		urgency := t.Urgency
		if urgency == "" {
			urgency = domain.TestUrgencyRoutine
		}
		tests = append(tests, domain.RecommendedTest{
			ID:      uuid.NewString(),
			Name:    strings.TrimSpace(t.Name),
			Type:    strings.TrimSpace(t.Type),
			Reason:  strings.TrimSpace(t.Reason),
			Urgency: urgency,
			Status:  domain.RecommendedPending,
		})
		names = append(names, strings.TrimSpace(t.Name))
	}

	now := s.now().UTC()
	rec := &domain.TestRecommendation{
		ID:               uuid.NewString(),
		PatientID:        appt.PatientID,
		DoctorID:         doctor.ID,
		AppointmentID:    appt.ID,
		Tests:            tests,
		Notes:            in.Notes,
		FollowUpRequired: in.FollowUpRequired,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.recommendations.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recommendation: %w", err)
	}
	s.log.Info().Str("recommendation_id", rec.ID).Int("tests", len(tests)).Msg("test recommendation created")

	appt.TestRecommendationID = rec.ID
	appt.UpdatedAt = now
	if err := s.appointments.Update(ctx, appt); err != nil {
		s.log.Warn().Err(err).Str("appointment_id", appt.ID).Msg("could not link recommendation to appointment")
	}

	patient, err := s.patients.FindByID(ctx, appt.PatientID)
	if err != nil {
		s.log.Warn().Err(err).Str("recommendation_id", rec.ID).Msg("recommendation patient missing, mail skipped")
		return rec, nil
	}
	patient = s.profiles.RepairPatientProfile(ctx, patient)
	err = s.notifier.SendTestRecommendation(ctx, patient.Email, patient.FullName(), doctor.FullName(), names)
	recordNotification("test_recommendation", err)
	if err != nil {
		s.log.Warn().Err(err).Str("recommendation_id", rec.ID).Msg("recommendation mail failed")
		return rec, nil
	}
	rec.NotificationSent = true
	if err := s.recommendations.Update(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("recommendation_id", rec.ID).Msg("could not flag recommendation as notified")
	}
	return rec, nil
}

func (s *CareService) DoctorRecommendations(ctx context.Context, caller domain.Identity) ([]*ports.RecommendationView, error) {
	doctor, err := s.profiles.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.listRecommendations(ctx, ports.RecommendationFilter{DoctorID: doctor.ID})
}

func (s *CareService) PatientRecommendations(ctx context.Context, caller domain.Identity) ([]*ports.RecommendationView, error) {
	patient, err := s.profiles.EnsurePatientProfile(ctx, caller, domain.BasicInfo{})
	if err != nil {
		return nil, err
	}
	return s.listRecommendations(ctx, ports.RecommendationFilter{PatientID: patient.ID})
}

// UpdateRecommendedTest moves one test of a recommendation. The recommending
// doctor and the patient may both do this.
func (s *CareService) UpdateRecommendedTest(ctx context.Context, caller domain.Identity, recommendationID, testID, status string) (*domain.TestRecommendation, error) {
	next := domain.RecommendedTestStatus(status)
	switch next {
	case domain.RecommendedPending, domain.RecommendedScheduled, domain.RecommendedCompleted, domain.RecommendedCancelled:
	default:
		return nil, domain.NewValidationError("status", "status must be one of: pending scheduled completed cancelled")
	}

	rec, err := s.recommendations.FindByID(ctx, recommendationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRecommendation(ctx, caller, rec); err != nil {
		return nil, err
	}

	idx := -1
	for i := range rec.Tests {
		if rec.Tests[i].ID == testID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.NewValidationError("testId", "test not found in recommendation")
	}
	test := &rec.Tests[idx]
	if test.Status == next {
		return rec, nil
	}
	if !test.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: test %s to %s", domain.ErrInvalidTransition, test.Status, next)
	}

	now := s.now().UTC()
	test.Status = next
	switch next {
	case domain.RecommendedScheduled:
		test.ScheduledDate = &now
	case domain.RecommendedCompleted:
		test.CompletedDate = &now
	}
	rec.UpdatedAt = now
	if err := s.recommendations.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update recommended test: %w", err)
	}
	return rec, nil
}

func (s *CareService) authorizeRecommendation(ctx context.Context, caller domain.Identity, rec *domain.TestRecommendation) error {
	switch caller.Role {
	case domain.RoleDoctor:
		d, err := s.doctors.FindByUserID(ctx, caller.UserID)
		if err == nil && d.ID == rec.DoctorID {
			return nil
		}
	case domain.RolePatient:
		p, err := s.patients.FindByUserID(ctx, caller.UserID)
		if err == nil && p.ID == rec.PatientID {
			return nil
		}
	}
	return fmt.Errorf("%w: not a participant of this recommendation", domain.ErrForbidden)
}

func (s *CareService) listRecommendations(ctx context.Context, filter ports.RecommendationFilter) ([]*ports.RecommendationView, error) {
	list, err := s.recommendations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	patientIDs := make([]string, 0, len(list))
	doctorIDs := make([]string, 0, len(list))
	for _, r := range list {
		patientIDs = append(patientIDs, r.PatientID)
		doctorIDs = append(doctorIDs, r.DoctorID)
	}
	patients, doctors, err := s.summaries(ctx, patientIDs, doctorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*ports.RecommendationView, 0, len(list))
	for _, r := range list {
		views = append(views, &ports.RecommendationView{
			TestRecommendation: r,
			Patient:            patients[r.PatientID],
			Doctor:             doctors[r.DoctorID],
		})
	}
	return views, nil
}

func (s *CareService) requireMet(ctx context.Context, doctorID, patientID string) error {
	met, err := s.appointments.HaveMet(ctx, doctorID, patientID)
	if err != nil {
		return fmt.Errorf("check doctor-patient relation: %w", err)
	}
	if !met {
		return fmt.Errorf("%w: patient has no appointment with this doctor", domain.ErrForbidden)
	}
	return nil
}

func (s *CareService) summaries(ctx context.Context, patientIDs, doctorIDs []string) (map[string]*domain.ProfileSummary, map[string]*domain.ProfileSummary, error) {
	patients := map[string]*domain.ProfileSummary{}
	if ids := uniqueNonEmpty(patientIDs); len(ids) > 0 {
		found, err := s.patients.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("load patients: %w", err)
		}
		for _, p := range found {
			patients[p.ID] = s.profiles.RepairPatientProfile(ctx, p).Summary()
		}
	}
	doctors := map[string]*domain.ProfileSummary{}
	if ids := uniqueNonEmpty(doctorIDs); len(ids) > 0 {
		found, err := s.doctors.FindByIDs(ctx, ids)
		if err != nil {
			return nil, nil, fmt.Errorf("load doctors: %w", err)
		}
		for _, d := range found {
			doctors[d.ID] = d.Summary()
		}
	}
	return patients, doctors, nil
}
