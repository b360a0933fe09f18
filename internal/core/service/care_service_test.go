package service

import (
	"context"
	"errors"
	"testing"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

type careScene struct {
	f       *medicalFixture
	houseID domain.Identity
	cuddyID domain.Identity
	alice   domain.Identity
	house   *domain.DoctorProfile
	cuddy   *domain.DoctorProfile
	patient *domain.PatientProfile
	appt    *ports.AppointmentView
}

func newCareScene(t *testing.T) *careScene {
	t.Helper()
	f := newMedicalFixture()
	s := &careScene{
		f:       f,
		houseID: doctorIdentity("u-house", "Greg", "House"),
		cuddyID: doctorIdentity("u-cuddy", "Lisa", "Cuddy"),
		alice:   patientIdentity("u-alice", "Alice", "Smith"),
	}
	s.house = f.doctor(t, s.houseID)
	s.cuddy = f.doctor(t, s.cuddyID)
	s.patient = f.patient(t, s.alice)
	s.appt = f.book(t, s.alice, s.house.ID, tomorrow, "10:00")
	return s
}

func TestCareService_RecordTestResult(t *testing.T) {
	s := newCareScene(t)

	r, err := s.f.care.RecordTestResult(context.Background(), s.houseID, ports.TestResultInput{
		PatientID: s.patient.ID, AppointmentID: s.appt.ID, TestType: "blood", TestName: "CBC", Results: "normal",
	})
	if err != nil {
		t.Fatalf("RecordTestResult: %v", err)
	}
	if r.Status != domain.TestResultCompleted || r.DoctorID != s.house.ID || r.AppointmentID != s.appt.ID || !r.NotificationSent {
		t.Fatalf("unexpected result %+v", r)
	}
	if mails := s.f.notifier.byKind("test_result"); len(mails) != 1 || mails[0].body != "CBC" {
		t.Fatalf("expected a test result mail, got %+v", mails)
	}

	list, err := s.f.care.PatientTestResults(context.Background(), s.alice)
	if err != nil || len(list) != 1 {
		t.Fatalf("PatientTestResults: %d %v", len(list), err)
	}
}

func TestCareService_RecordTestResultRequiresRelationship(t *testing.T) {
	s := newCareScene(t)

	_, err := s.f.care.RecordTestResult(context.Background(), s.cuddyID, ports.TestResultInput{
		PatientID: s.patient.ID, TestType: "blood", TestName: "CBC", Results: "normal",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCareService_RecordTestResultChecksAppointment(t *testing.T) {
	s := newCareScene(t)
	bob := patientIdentity("u-bob", "Bob", "Jones")
	s.f.patient(t, bob)
	other := s.f.book(t, bob, s.house.ID, tomorrow, "11:00")

	for name, id := range map[string]string{"other patient": other.ID, "missing": "a-none"} {
		_, err := s.f.care.RecordTestResult(context.Background(), s.houseID, ports.TestResultInput{
			PatientID: s.patient.ID, AppointmentID: id, TestType: "blood", TestName: "CBC", Results: "normal",
		})
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Fields["appointmentId"] == "" {
			t.Fatalf("%s: expected appointmentId validation error, got %v", name, err)
		}
	}
	if mails := s.f.notifier.byKind("test_result"); len(mails) != 0 {
		t.Fatalf("rejected result was mailed: %+v", mails)
	}
}

func TestCareService_RecordTestResultMailFailure(t *testing.T) {
	s := newCareScene(t)
	s.f.notifier.err = errors.New("smtp down")

	r, err := s.f.care.RecordTestResult(context.Background(), s.houseID, ports.TestResultInput{
		PatientID: s.patient.ID, TestType: "blood", TestName: "CBC", Results: "normal",
	})
	if err != nil {
		t.Fatalf("mail failure must not fail the request: %v", err)
	}
	if r.NotificationSent {
		t.Fatalf("result flagged as notified after a failed send")
	}
}

func TestCareService_ReferralLifecycle(t *testing.T) {
	s := newCareScene(t)
	ctx := context.Background()

	ref, err := s.f.care.CreateReferral(ctx, s.houseID, ports.ReferralInput{
		AppointmentID: s.appt.ID, ReferredDoctorID: s.cuddy.ID, Reason: "second opinion",
	})
	if err != nil {
		t.Fatalf("CreateReferral: %v", err)
	}
	if ref.Status != domain.ReferralPending || ref.Urgency != domain.UrgencyMedium || ref.PatientID != s.patient.ID {
		t.Fatalf("unexpected referral %+v", ref)
	}
	if ref.SpecialtyNeeded != domain.DefaultSpecialty {
		t.Fatalf("specialty should default to the referred doctor's, got %q", ref.SpecialtyNeeded)
	}
	if n := len(s.f.notifier.byKind("referral")); n != 2 {
		t.Fatalf("expected mails to referred doctor and patient, got %d", n)
	}
	appt, _ := s.f.appts.FindByID(ctx, s.appt.ID)
	if appt.ReferralID != ref.ID {
		t.Fatalf("appointment not linked to referral")
	}

	if _, err := s.f.care.UpdateReferralStatus(ctx, s.houseID, ref.ID, "accepted", ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("referring doctor must not respond, got %v", err)
	}
	if _, err := s.f.care.UpdateReferralStatus(ctx, s.cuddyID, ref.ID, "completed", ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pending cannot jump to completed, got %v", err)
	}
	updated, err := s.f.care.UpdateReferralStatus(ctx, s.cuddyID, ref.ID, "accepted", "see you monday")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if updated.Status != domain.ReferralAccepted || updated.ResponseNotes != "see you monday" || updated.RespondedAt == nil {
		t.Fatalf("unexpected referral %+v", updated)
	}

	sent, _ := s.f.care.SentReferrals(ctx, s.houseID)
	received, _ := s.f.care.ReceivedReferrals(ctx, s.cuddyID)
	mine, _ := s.f.care.PatientReferrals(ctx, s.alice)
	if len(sent) != 1 || len(received) != 1 || len(mine) != 1 {
		t.Fatalf("listing mismatch: sent=%d received=%d patient=%d", len(sent), len(received), len(mine))
	}
	if received[0].ReferringDoctor == nil || received[0].ReferringDoctor.LastName != "House" || received[0].Patient == nil {
		t.Fatalf("referral view not hydrated: %+v", received[0])
	}
}

func TestCareService_ReferralGuards(t *testing.T) {
	s := newCareScene(t)
	ctx := context.Background()

	if _, err := s.f.care.CreateReferral(ctx, s.houseID, ports.ReferralInput{
		AppointmentID: s.appt.ID, ReferredDoctorID: s.house.ID, Reason: "x",
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self referral: expected validation error, got %v", err)
	}
	if _, err := s.f.care.CreateReferral(ctx, s.cuddyID, ports.ReferralInput{
		AppointmentID: s.appt.ID, ReferredDoctorID: s.house.ID, Reason: "x",
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign appointment: expected ErrForbidden, got %v", err)
	}
	if _, err := s.f.care.CreateReferral(ctx, s.houseID, ports.ReferralInput{
		AppointmentID: s.appt.ID, ReferredDoctorID: s.cuddy.ID, Reason: "x", Urgency: "whenever",
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad urgency: expected validation error, got %v", err)
	}
	if _, err := s.f.care.CreateReferral(ctx, s.houseID, ports.ReferralInput{
		AppointmentID: s.appt.ID, ReferredDoctorID: "nobody", Reason: "x",
	}); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Fatalf("unknown doctor: expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCareService_RecommendationLifecycle(t *testing.T) {
	s := newCareScene(t)
	ctx := context.Background()

	rec, err := s.f.care.CreateRecommendation(ctx, s.houseID, ports.RecommendationInput{
		AppointmentID: s.appt.ID,
		Tests: []ports.RecommendedTestInput{
			{Name: "MRI", Type: "imaging"},
			{Name: "CBC", Type: "blood", Urgency: "stat"},
		},
	})
	if err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}
	if len(rec.Tests) != 2 || rec.Tests[0].ID == "" || rec.Tests[0].Urgency != domain.TestUrgencyRoutine || !rec.NotificationSent {
		t.Fatalf("unexpected recommendation %+v", rec)
	}
	if mails := s.f.notifier.byKind("recommendation"); len(mails) != 1 || mails[0].body != "MRI,CBC" {
		t.Fatalf("unexpected recommendation mails %+v", mails)
	}

	testID := rec.Tests[0].ID
	updated, err := s.f.care.UpdateRecommendedTest(ctx, s.alice, rec.ID, testID, "scheduled")
	if err != nil {
		t.Fatalf("patient schedules test: %v", err)
	}
	if updated.Tests[0].Status != domain.RecommendedScheduled || updated.Tests[0].ScheduledDate == nil {
		t.Fatalf("test not scheduled: %+v", updated.Tests[0])
	}
	updated, err = s.f.care.UpdateRecommendedTest(ctx, s.houseID, rec.ID, testID, "completed")
	if err != nil {
		t.Fatalf("doctor completes test: %v", err)
	}
	if updated.Tests[0].CompletedDate == nil {
		t.Fatalf("completed date not set")
	}
	if _, err := s.f.care.UpdateRecommendedTest(ctx, s.houseID, rec.ID, testID, "pending"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := s.f.care.UpdateRecommendedTest(ctx, s.cuddyID, rec.ID, testID, "cancelled"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}
	if _, err := s.f.care.UpdateRecommendedTest(ctx, s.alice, rec.ID, "nope", "cancelled"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown test, got %v", err)
	}

	docView, _ := s.f.care.DoctorRecommendations(ctx, s.houseID)
	patientView, _ := s.f.care.PatientRecommendations(ctx, s.alice)
	if len(docView) != 1 || len(patientView) != 1 || patientView[0].Doctor == nil {
		t.Fatalf("listing mismatch: doctor=%d patient=%d", len(docView), len(patientView))
	}
}
