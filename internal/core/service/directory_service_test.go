package service

import (
	"context"
	"errors"
	"testing"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

func TestDirectoryService_Dashboards(t *testing.T) {
	f := newMedicalFixture()
	houseID := doctorIdentity("u-house", "Greg", "House")
	house := f.doctor(t, houseID)
	alice := patientIdentity("u-alice", "Alice", "Smith")
	bob := patientIdentity("u-bob", "Bob", "Jones")
	ctx := context.Background()

	today := f.book(t, alice, house.ID, fixedNow, "15:00")
	f.book(t, alice, house.ID, tomorrow, "09:00")
	f.book(t, bob, house.ID, tomorrow, "10:00")
	if _, err := f.booking.UpdateConsultation(ctx, houseID, today.ID, ports.ConsultationUpdate{Status: "completed"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	ps, err := f.directory.PatientDashboard(ctx, alice)
	if err != nil {
		t.Fatalf("PatientDashboard: %v", err)
	}
	if ps.TotalAppointments != 2 || ps.UpcomingAppointments != 1 || ps.CompletedAppointments != 1 {
		t.Fatalf("unexpected patient stats %+v", ps)
	}

	ds, err := f.directory.DoctorDashboard(ctx, houseID)
	if err != nil {
		t.Fatalf("DoctorDashboard: %v", err)
	}
	if ds.TodayAppointments != 1 || ds.UpcomingAppointments != 2 || ds.CompletedAppointments != 1 || ds.TotalPatients != 2 {
		t.Fatalf("unexpected doctor stats %+v", ds)
	}
}

func TestDirectoryService_DoctorPatientsScopedToAppointments(t *testing.T) {
	f := newMedicalFixture()
	houseID := doctorIdentity("u-house", "Greg", "House")
	house := f.doctor(t, houseID)
	alice := patientIdentity("u-alice", "Alice", "Smith")
	f.book(t, alice, house.ID, tomorrow, "09:00")
	stranger := f.patient(t, patientIdentity("u-carol", "Carol", "White"))
	ctx := context.Background()

	list, err := f.directory.DoctorPatients(ctx, houseID, "")
	if err != nil {
		t.Fatalf("DoctorPatients: %v", err)
	}
	if len(list) != 1 || list[0].FirstName != "Alice" {
		t.Fatalf("unexpected patients %+v", list)
	}

	if _, err := f.directory.DoctorPatientDetails(ctx, houseID, stranger.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unrelated patient, got %v", err)
	}
	details, err := f.directory.DoctorPatientDetails(ctx, houseID, list[0].ID)
	if err != nil {
		t.Fatalf("DoctorPatientDetails: %v", err)
	}
	if len(details.Appointments) != 1 || details.Appointments[0].Doctor == nil {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestDirectoryService_AdminStatsDegradesWithoutAuth(t *testing.T) {
	f := newMedicalFixture()
	f.doctor(t, doctorIdentity("u-house", "Greg", "House"))
	f.patient(t, patientIdentity("u-alice", "Alice", "Smith"))
	f.dir.users["u-alice"] = domain.UserBasic{ID: "u-alice"}
	ctx := context.Background()

	stats, err := f.directory.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats: %v", err)
	}
	if stats.Patients != 1 || stats.Doctors != 1 || stats.Users == nil || stats.Users.Total != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	f.dir.err = errors.New("auth down")
	stats, err = f.directory.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats must not fail when auth is down: %v", err)
	}
	if stats.Users != nil || stats.Patients != 1 {
		t.Fatalf("unexpected degraded stats %+v", stats)
	}
}

func TestDirectoryService_ListDoctorsOnlyAvailable(t *testing.T) {
	f := newMedicalFixture()
	f.doctor(t, doctorIdentity("u-house", "Greg", "House"))
	off := false
	if _, err := f.profiles.UpdateDoctorProfile(context.Background(), doctorIdentity("u-cuddy", "Lisa", "Cuddy"), ports.DoctorProfileUpdate{IsAvailable: &off}); err != nil {
		t.Fatalf("UpdateDoctorProfile: %v", err)
	}

	page, err := f.directory.ListDoctors(context.Background(), ports.ProfileFilter{OnlyAvailable: true})
	if err != nil {
		t.Fatalf("ListDoctors: %v", err)
	}
	if page.Total != 1 || page.Items[0].LastName != "House" {
		t.Fatalf("unexpected doctors %+v", page.Items)
	}
}

func TestDirectoryService_AdminDetails(t *testing.T) {
	f := newMedicalFixture()
	house := f.doctor(t, doctorIdentity("u-house", "Greg", "House"))
	v := f.book(t, patientIdentity("u-alice", "Alice", "Smith"), house.ID, tomorrow, "09:00")
	ctx := context.Background()

	pd, err := f.directory.AdminPatientDetails(ctx, v.PatientID)
	if err != nil || len(pd.Appointments) != 1 || pd.TestResults == nil {
		t.Fatalf("AdminPatientDetails: %+v %v", pd, err)
	}
	dd, err := f.directory.AdminDoctorDetails(ctx, house.ID)
	if err != nil || len(dd.Appointments) != 1 || dd.Appointments[0].Patient == nil {
		t.Fatalf("AdminDoctorDetails: %+v %v", dd, err)
	}
	if _, err := f.directory.AdminDoctorDetails(ctx, "missing"); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}
