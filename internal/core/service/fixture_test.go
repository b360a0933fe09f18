package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// fixedNow is a Tuesday morning.
var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type medicalFixture struct {
	patients  *stubPatientRepo
	doctors   *stubDoctorRepo
	appts     *stubAppointmentRepo
	results   *stubTestResultRepo
	referrals *stubReferralRepo
	recs      *stubRecommendationRepo
	notifier  *stubNotifier
	dir       *stubDirectory

	profiles  *ProfileService
	booking   *AppointmentService
	care      *CareService
	directory *DirectoryService
	jobs      *NotifierService
}

func newMedicalFixture() *medicalFixture {
	f := &medicalFixture{
		patients:  newStubPatientRepo(),
		doctors:   newStubDoctorRepo(),
		appts:     newStubAppointmentRepo(),
		results:   &stubTestResultRepo{},
		referrals: newStubReferralRepo(),
		recs:      newStubRecommendationRepo(),
		notifier:  &stubNotifier{},
		dir:       &stubDirectory{users: map[string]domain.UserBasic{}},
	}
	clock := func() time.Time { return fixedNow }
	log := zerolog.Nop()

	f.profiles = NewProfileService(f.patients, f.doctors, f.dir, log)
	f.profiles.now = clock
	f.booking = NewAppointmentService(f.appts, f.patients, f.doctors, f.profiles, f.notifier, time.UTC, log)
	f.booking.now = clock
	f.care = NewCareService(f.appts, f.patients, f.doctors, f.results, f.referrals, f.recs, f.profiles, f.notifier, log)
	f.care.now = clock
	f.directory = NewDirectoryService(f.appts, f.patients, f.doctors, f.results, f.referrals, f.profiles, f.booking, f.dir, time.UTC, log)
	f.directory.now = clock
	f.jobs = NewNotifierService(f.appts, f.patients, f.doctors, f.profiles, f.notifier, time.UTC, log)
	return f
}

func patientIdentity(userID, first, last string) domain.Identity {
	return domain.Identity{
		UserID:    userID,
		Email:     userID + "@example.com",
		FirstName: first,
		LastName:  last,
		Role:      domain.RolePatient,
	}
}

func doctorIdentity(userID, first, last string) domain.Identity {
	return domain.Identity{
		UserID:    userID,
		Email:     userID + "@example.com",
		FirstName: first,
		LastName:  last,
		Role:      domain.RoleDoctor,
	}
}

func (f *medicalFixture) doctor(t *testing.T, id domain.Identity) *domain.DoctorProfile {
	t.Helper()
	d, err := f.profiles.EnsureDoctorProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("EnsureDoctorProfile: %v", err)
	}
	return d
}

func (f *medicalFixture) patient(t *testing.T, id domain.Identity) *domain.PatientProfile {
	t.Helper()
	p, err := f.profiles.EnsurePatientProfile(context.Background(), id, domain.BasicInfo{})
	if err != nil {
		t.Fatalf("EnsurePatientProfile: %v", err)
	}
	return p
}

func (f *medicalFixture) book(t *testing.T, patient domain.Identity, doctorID string, day time.Time, start string) *ports.AppointmentView {
	t.Helper()
	v, err := f.booking.Book(context.Background(), patient, ports.BookAppointmentInput{
		DoctorID:  doctorID,
		Date:      day,
		StartTime: start,
		EndTime:   addHalfHour(start),
		Reason:    "checkup",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return v
}

func addHalfHour(clock string) string {
	t, _ := time.Parse("15:04", clock)
	return t.Add(30 * time.Minute).Format("15:04")
}
