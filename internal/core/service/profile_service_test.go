package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

func TestProfileService_SyncCreatesDoctorWithDefaults(t *testing.T) {
	f := newMedicalFixture()

	res, err := f.profiles.SyncProfile(context.Background(), ports.SyncProfileInput{
		UserID:    "u-doc",
		Role:      domain.RoleDoctor,
		BasicInfo: domain.BasicInfo{FirstName: "Greg", LastName: "House", Email: "HOUSE@x.com"},
	})
	if err != nil {
		t.Fatalf("SyncProfile: %v", err)
	}
	if !res.Created || res.ProfileID == "" {
		t.Fatalf("expected creation, got %+v", res)
	}

	d, _ := f.doctors.FindByUserID(context.Background(), "u-doc")
	if d.Specialty != domain.DefaultSpecialty || d.Qualification != domain.DefaultQualification {
		t.Fatalf("defaults not applied: %+v", d)
	}
	if d.ConsultationFee != domain.DefaultConsultationFee || !d.IsAvailable {
		t.Fatalf("fee/availability defaults not applied: %+v", d)
	}
	if d.LicenseNumber != "LIC-1773136800000" {
		t.Fatalf("unexpected license %q", d.LicenseNumber)
	}
	if d.Email != "house@x.com" {
		t.Fatalf("email not normalized: %q", d.Email)
	}
}

func TestProfileService_SyncMergesNonEmptyIncoming(t *testing.T) {
	f := newMedicalFixture()
	ctx := context.Background()
	in := ports.SyncProfileInput{
		UserID:    "u-1",
		Role:      domain.RolePatient,
		BasicInfo: domain.BasicInfo{FirstName: "Alice", LastName: "Smith", Email: "alice@x.com", Phone: "111"},
	}
	if _, err := f.profiles.SyncProfile(ctx, in); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	in.BasicInfo = domain.BasicInfo{FirstName: "Alicia", Email: "alice@x.com"}
	res, err := f.profiles.SyncProfile(ctx, in)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if res.Created {
		t.Fatalf("second sync must merge, not create")
	}

	p, _ := f.patients.FindByUserID(ctx, "u-1")
	if p.FirstName != "Alicia" || p.LastName != "Smith" || p.Phone != "111" {
		t.Fatalf("merge lost fields: %+v", p.BasicInfo)
	}
	if f.patients.creates != 1 {
		t.Fatalf("expected a single profile, got %d creates", f.patients.creates)
	}
}

func TestProfileService_SyncSkipsAdmin(t *testing.T) {
	f := newMedicalFixture()

	res, err := f.profiles.SyncProfile(context.Background(), ports.SyncProfileInput{
		UserID: "u-admin", Role: domain.RoleAdmin, BasicInfo: domain.BasicInfo{Email: "a@x.com"},
	})
	if err != nil {
		t.Fatalf("SyncProfile: %v", err)
	}
	if !res.Skipped || res.Created {
		t.Fatalf("expected skip, got %+v", res)
	}
	if n, _ := f.patients.Count(context.Background()); n != 0 {
		t.Fatalf("admin sync created a patient")
	}
}

func TestProfileService_SyncRequiresIdentityFields(t *testing.T) {
	f := newMedicalFixture()

	_, err := f.profiles.SyncProfile(context.Background(), ports.SyncProfileInput{Role: domain.RolePatient})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["userId"]; !ok {
		t.Fatalf("missing userId error: %+v", ve.Fields)
	}
	if _, ok := ve.Fields["email"]; !ok {
		t.Fatalf("missing email error: %+v", ve.Fields)
	}
}

func TestProfileService_EnsureUsesIdentityWithoutPull(t *testing.T) {
	f := newMedicalFixture()

	p := f.patient(t, patientIdentity("u-1", "Alice", "Smith"))

	if p.FirstName != "Alice" || p.LastName != "Smith" || p.Email != "u-1@example.com" {
		t.Fatalf("unexpected basic info %+v", p.BasicInfo)
	}
	if f.dir.calls != 0 {
		t.Fatalf("complete identity should not trigger a pull")
	}
}

func TestProfileService_EnsurePullsMissingName(t *testing.T) {
	f := newMedicalFixture()
	f.dir.users["u-1"] = domain.UserBasic{
		ID:        "u-1",
		BasicInfo: domain.BasicInfo{FirstName: "Alice", LastName: "Smith", Email: "alice@auth.com", Phone: "555"},
	}

	caller := domain.Identity{UserID: "u-1", Email: "alice@token.com", Role: domain.RolePatient}
	p := f.patient(t, caller)

	if p.FirstName != "Alice" || p.LastName != "Smith" {
		t.Fatalf("name not pulled: %+v", p.BasicInfo)
	}
	if p.Email != "alice@token.com" {
		t.Fatalf("token identity must win over pulled values, got %q", p.Email)
	}
	if p.Phone != "555" {
		t.Fatalf("empty candidate fields should come from the pull, got %q", p.Phone)
	}
}

func TestProfileService_EnsureOverridesWin(t *testing.T) {
	f := newMedicalFixture()

	p, err := f.profiles.EnsurePatientProfile(context.Background(),
		patientIdentity("u-1", "Alice", "Smith"),
		domain.BasicInfo{FirstName: "Ally", Phone: "777"},
	)
	if err != nil {
		t.Fatalf("EnsurePatientProfile: %v", err)
	}
	if p.FirstName != "Ally" || p.LastName != "Smith" || p.Phone != "777" {
		t.Fatalf("override precedence broken: %+v", p.BasicInfo)
	}
}

func TestProfileService_EnsurePullFailureDegrades(t *testing.T) {
	f := newMedicalFixture()
	f.dir.err = errors.New("auth down")

	caller := domain.Identity{UserID: "u-1", Email: "alice@x.com", FirstName: "Alice", Role: domain.RolePatient}
	p := f.patient(t, caller)

	if p.FirstName != "Alice" || p.LastName != "" {
		t.Fatalf("expected local fields only, got %+v", p.BasicInfo)
	}
}

func TestProfileService_EnsureOnlyFillsGaps(t *testing.T) {
	f := newMedicalFixture()
	ctx := context.Background()
	if _, err := f.profiles.SyncProfile(ctx, ports.SyncProfileInput{
		UserID:    "u-1",
		Role:      domain.RolePatient,
		BasicInfo: domain.BasicInfo{FirstName: "Stored", LastName: "Name", Email: "stored@x.com"},
	}); err != nil {
		t.Fatalf("SyncProfile: %v", err)
	}

	caller := domain.Identity{UserID: "u-1", Email: "token@x.com", FirstName: "Token", LastName: "Name", Phone: "999", Role: domain.RolePatient}
	p := f.patient(t, caller)

	if p.FirstName != "Stored" || p.Email != "stored@x.com" {
		t.Fatalf("ensure overwrote stored values: %+v", p.BasicInfo)
	}
	if p.Phone != "999" {
		t.Fatalf("empty phone should be filled, got %q", p.Phone)
	}
}

func TestProfileService_EnsureIsIdempotent(t *testing.T) {
	f := newMedicalFixture()
	caller := patientIdentity("u-1", "Alice", "Smith")

	first := f.patient(t, caller)
	second := f.patient(t, caller)

	if first.ID != second.ID || first.BasicInfo != second.BasicInfo {
		t.Fatalf("ensure not idempotent: %+v vs %+v", first, second)
	}
	if f.patients.creates != 1 {
		t.Fatalf("expected 1 create, got %d", f.patients.creates)
	}
}

func TestProfileService_ConcurrentEnsureCreatesOneProfile(t *testing.T) {
	f := newMedicalFixture()
	caller := patientIdentity("u-1", "Alice", "Smith")

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.profiles.EnsurePatientProfile(context.Background(), caller, domain.BasicInfo{})
			if err != nil {
				t.Errorf("ensure %d: %v", i, err)
				return
			}
			ids[i] = p.ID
		}(i)
	}
	wg.Wait()

	if f.patients.creates != 1 {
		t.Fatalf("expected 1 stored profile, got %d", f.patients.creates)
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("callers saw different profiles: %v", ids)
		}
	}
}

func TestProfileService_RepairFillsFromAuth(t *testing.T) {
	f := newMedicalFixture()
	f.dir.users["u-1"] = domain.UserBasic{ID: "u-1", BasicInfo: domain.BasicInfo{FirstName: "Alice", LastName: "Smith", Email: "alice@x.com"}}
	broken := &domain.PatientProfile{ID: "p-1", UserID: "u-1"}
	_ = f.patients.Create(context.Background(), broken)

	repaired := f.profiles.RepairPatientProfile(context.Background(), broken)

	if !repaired.Complete() {
		t.Fatalf("profile not repaired: %+v", repaired.BasicInfo)
	}
	stored, _ := f.patients.FindByID(context.Background(), "p-1")
	if stored.FirstName != "Alice" {
		t.Fatalf("repair not persisted")
	}
	if broken.FirstName != "" {
		t.Fatalf("repair mutated the input profile")
	}
}

func TestProfileService_UpdatePatientProfile(t *testing.T) {
	f := newMedicalFixture()
	caller := patientIdentity("u-1", "Alice", "Smith")
	blood := "O+"
	address := "  1 Main St "

	p, err := f.profiles.UpdatePatientProfile(context.Background(), caller, ports.PatientProfileUpdate{
		Basic:             domain.BasicInfo{Phone: "123"},
		BloodType:         &blood,
		Address:           &address,
		ChronicConditions: []string{"asthma"},
	})
	if err != nil {
		t.Fatalf("UpdatePatientProfile: %v", err)
	}
	if p.BloodType != "O+" || p.Address != "1 Main St" || p.Phone != "123" || p.FirstName != "Alice" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if len(p.ChronicConditions) != 1 {
		t.Fatalf("conditions not stored")
	}

	bad := "Z+"
	if _, err := f.profiles.UpdatePatientProfile(context.Background(), caller, ports.PatientProfileUpdate{BloodType: &bad}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProfileService_UpdateDoctorProfile(t *testing.T) {
	f := newMedicalFixture()
	caller := doctorIdentity("u-doc", "Greg", "House")
	specialty := "Cardiology"
	fee := 750.0

	d, err := f.profiles.UpdateDoctorProfile(context.Background(), caller, ports.DoctorProfileUpdate{
		Specialty:       &specialty,
		ConsultationFee: &fee,
		Availability:    []domain.AvailabilitySlot{{Day: "Monday", StartTime: "09:00", EndTime: "12:00"}},
	})
	if err != nil {
		t.Fatalf("UpdateDoctorProfile: %v", err)
	}
	if d.Specialty != "Cardiology" || d.ConsultationFee != 750 || len(d.Availability) != 1 {
		t.Fatalf("unexpected profile %+v", d)
	}

	_, err = f.profiles.UpdateDoctorProfile(context.Background(), caller, ports.DoctorProfileUpdate{
		Availability: []domain.AvailabilitySlot{{Day: "Funday", StartTime: "12:00", EndTime: "09:00"}},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
