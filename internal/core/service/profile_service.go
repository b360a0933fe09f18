package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-portal/internal/api/metrics"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// ProfileService keeps medical profiles in step with auth credentials.
// Inbound syncs overwrite stored basic fields with non-empty incoming values;
// lazy ensures only fill gaps.
type ProfileService struct {
	patients  ports.PatientRepository
	doctors   ports.DoctorRepository
	directory ports.IdentityDirectory // nil disables identity pulls
	log       zerolog.Logger
	now       func() time.Time
}

func NewProfileService(
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	directory ports.IdentityDirectory,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		patients:  patients,
		doctors:   doctors,
		directory: directory,
		log:       log,
		now:       time.Now,
	}
}

// SyncProfile creates or merges the profile matching in.Role. Roles without a
// medical profile are acknowledged and skipped.
func (s *ProfileService) SyncProfile(ctx context.Context, in ports.SyncProfileInput) (*ports.SyncResult, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.BasicInfo = in.BasicInfo.Normalize()
	if err := validateSync(in); err != nil {
		return nil, err
	}

	var (
		res *ports.SyncResult
		err error
	)
	switch in.Role {
	case domain.RolePatient:
		res, err = s.syncPatient(ctx, in)
	case domain.RoleDoctor:
		res, err = s.syncDoctor(ctx, in)
	default:
		metrics.ProfileSyncTotal.WithLabelValues("inbound", "skipped").Inc()
		return &ports.SyncResult{Role: in.Role, Skipped: true}, nil
	}
	if err != nil {
		metrics.ProfileSyncTotal.WithLabelValues("inbound", "failed").Inc()
		return nil, err
	}

	outcome := "merged"
	if res.Created {
		outcome = "created"
	}
	metrics.ProfileSyncTotal.WithLabelValues("inbound", outcome).Inc()
	s.log.Info().
		Str("user_id", in.UserID).
		Str("role", in.Role).
		Str("profile_id", res.ProfileID).
		Bool("created", res.Created).
		Msg("profile synced")
	return res, nil
}

func validateSync(in ports.SyncProfileInput) error {
	ve := &domain.ValidationError{Fields: map[string]string{}}
	if in.UserID == "" {
		ve.Fields["userId"] = "userId is required"
	}
	if in.Email == "" {
		ve.Fields["email"] = "email is required"
	}
	if in.Role == "" {
		ve.Fields["role"] = "role is required"
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func (s *ProfileService) syncPatient(ctx context.Context, in ports.SyncProfileInput) (*ports.SyncResult, error) {
	p, err := s.patients.FindByUserID(ctx, in.UserID)
	switch {
	case errors.Is(err, domain.ErrPatientNotFound):
		p = s.newPatient(in.UserID, in.BasicInfo)
		if err := s.patients.Create(ctx, p); err == nil {
			return &ports.SyncResult{Role: in.Role, ProfileID: p.ID, Created: true}, nil
		} else if !errors.Is(err, domain.ErrDuplicateProfile) {
			return nil, fmt.Errorf("sync patient: %w", err)
		}
		// lost a race with a concurrent create; merge into the winner
		if p, err = s.patients.FindByUserID(ctx, in.UserID); err != nil {
			return nil, fmt.Errorf("sync patient: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("sync patient: %w", err)
	}

	p.BasicInfo = p.BasicInfo.MergeOver(in.BasicInfo)
	p.UpdatedAt = s.now().UTC()
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("sync patient: %w", err)
	}
	return &ports.SyncResult{Role: in.Role, ProfileID: p.ID}, nil
}

func (s *ProfileService) syncDoctor(ctx context.Context, in ports.SyncProfileInput) (*ports.SyncResult, error) {
	d, err := s.doctors.FindByUserID(ctx, in.UserID)
	switch {
	case errors.Is(err, domain.ErrDoctorNotFound):
		d = s.newDoctor(in.UserID, in.BasicInfo)
		if err := s.doctors.Create(ctx, d); err == nil {
			return &ports.SyncResult{Role: in.Role, ProfileID: d.ID, Created: true}, nil
		} else if !errors.Is(err, domain.ErrDuplicateProfile) {
			return nil, fmt.Errorf("sync doctor: %w", err)
		}
		if d, err = s.doctors.FindByUserID(ctx, in.UserID); err != nil {
			return nil, fmt.Errorf("sync doctor: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("sync doctor: %w", err)
	}

	d.BasicInfo = d.BasicInfo.MergeOver(in.BasicInfo)
	d.UpdatedAt = s.now().UTC()
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("sync doctor: %w", err)
	}
	return &ports.SyncResult{Role: in.Role, ProfileID: d.ID}, nil
}

// EnsurePatientProfile returns the caller's patient profile, creating it on
// first use. Candidate basic fields come from overrides, then the verified
// identity, then a pull from the auth service when a name is still missing.
// An existing profile only has its empty fields filled.
func (s *ProfileService) EnsurePatientProfile(ctx context.Context, caller domain.Identity, overrides domain.BasicInfo) (*domain.PatientProfile, error) {
	candidate := caller.BasicInfo().Normalize().Overlay(overrides.Normalize())

	p, err := s.patients.FindByUserID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrPatientNotFound) {
		if !candidate.HasName() {
			candidate = candidate.FillGaps(s.pull(ctx, caller.UserID))
		}
		p = s.newPatient(caller.UserID, candidate)
		err = s.patients.Create(ctx, p)
		if err == nil {
			s.log.Info().Str("user_id", caller.UserID).Str("profile_id", p.ID).Msg("patient profile created")
			return p, nil
		}
		if !errors.Is(err, domain.ErrDuplicateProfile) {
			return nil, fmt.Errorf("ensure patient profile: %w", err)
		}
		p, err = s.patients.FindByUserID(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure patient profile: %w", err)
	}

	merged := p.BasicInfo.FillGaps(candidate)
	if !merged.HasName() {
		merged = merged.FillGaps(s.pull(ctx, caller.UserID))
	}
	if merged == p.BasicInfo {
		return p, nil
	}
	p.BasicInfo = merged
	p.UpdatedAt = s.now().UTC()
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("ensure patient profile: %w", err)
	}
	return p, nil
}

// EnsureDoctorProfile is the doctor counterpart of EnsurePatientProfile.
// New profiles start with default professional fields.
func (s *ProfileService) EnsureDoctorProfile(ctx context.Context, caller domain.Identity) (*domain.DoctorProfile, error) {
	candidate := caller.BasicInfo().Normalize()

	d, err := s.doctors.FindByUserID(ctx, caller.UserID)
	if errors.Is(err, domain.ErrDoctorNotFound) {
		if !candidate.HasName() {
			candidate = candidate.FillGaps(s.pull(ctx, caller.UserID))
		}
		d = s.newDoctor(caller.UserID, candidate)
		err = s.doctors.Create(ctx, d)
		if err == nil {
			s.log.Info().Str("user_id", caller.UserID).Str("profile_id", d.ID).Msg("doctor profile created")
			return d, nil
		}
		if !errors.Is(err, domain.ErrDuplicateProfile) {
			return nil, fmt.Errorf("ensure doctor profile: %w", err)
		}
		d, err = s.doctors.FindByUserID(ctx, caller.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure doctor profile: %w", err)
	}

	merged := d.BasicInfo.FillGaps(candidate)
	if !merged.HasName() {
		merged = merged.FillGaps(s.pull(ctx, caller.UserID))
	}
	if merged == d.BasicInfo {
		return d, nil
	}
	d.BasicInfo = merged
	d.UpdatedAt = s.now().UTC()
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("ensure doctor profile: %w", err)
	}
	return d, nil
}

// RepairPatientProfile fills missing basic fields of a stored profile from
// the auth service. It always returns a usable profile; failures are logged.
func (s *ProfileService) RepairPatientProfile(ctx context.Context, p *domain.PatientProfile) *domain.PatientProfile {
	if p == nil || p.Complete() {
		return p
	}
	merged := p.BasicInfo.FillGaps(s.pull(ctx, p.UserID))
	if merged == p.BasicInfo {
		return p
	}
	repaired := *p
	repaired.BasicInfo = merged
	repaired.UpdatedAt = s.now().UTC()
	if err := s.patients.Update(ctx, &repaired); err != nil {
		s.log.Warn().Err(err).Str("profile_id", p.ID).Msg("could not persist repaired patient profile")
	}
	return &repaired
}

// UpdatePatientProfile ensures the profile exists, then applies the edit.
// Explicit basic fields win over stored ones.
func (s *ProfileService) UpdatePatientProfile(ctx context.Context, caller domain.Identity, in ports.PatientProfileUpdate) (*domain.PatientProfile, error) {
	if in.BloodType != nil && !domain.ValidBloodType(strings.TrimSpace(*in.BloodType)) {
		return nil, domain.NewValidationError("bloodType", "bloodType must be one of A+ A- B+ B- AB+ AB- O+ O-")
	}
	basic := in.Basic.Normalize()
	p, err := s.EnsurePatientProfile(ctx, caller, basic)
	if err != nil {
		return nil, err
	}

	p.BasicInfo = p.BasicInfo.Overlay(basic)
	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Gender != nil {
		p.Gender = strings.TrimSpace(*in.Gender)
	}
	if in.Address != nil {
		p.Address = strings.TrimSpace(*in.Address)
	}
	if in.BloodType != nil {
		p.BloodType = strings.TrimSpace(*in.BloodType)
	}
	if in.Height != nil {
		p.Height = in.Height
	}
	if in.Weight != nil {
		p.Weight = in.Weight
	}
	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}
	if in.ChronicConditions != nil {
		p.ChronicConditions = in.ChronicConditions
	}
	if in.Medications != nil {
		p.Medications = in.Medications
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = in.EmergencyContact
	}
	if in.Insurance != nil {
		p.Insurance = in.Insurance
	}
	if in.MedicalHistory != nil {
		p.MedicalHistory = in.MedicalHistory
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient profile: %w", err)
	}
	s.log.Info().Str("user_id", caller.UserID).Str("profile_id", p.ID).Msg("patient profile updated")
	return p, nil
}

func (s *ProfileService) UpdateDoctorProfile(ctx context.Context, caller domain.Identity, in ports.DoctorProfileUpdate) (*domain.DoctorProfile, error) {
	if err := validateDoctorUpdate(in); err != nil {
		return nil, err
	}
	d, err := s.EnsureDoctorProfile(ctx, caller)
	if err != nil {
		return nil, err
	}

	d.BasicInfo = d.BasicInfo.Overlay(in.Basic.Normalize())
	if in.Specialty != nil && strings.TrimSpace(*in.Specialty) != "" {
		d.Specialty = strings.TrimSpace(*in.Specialty)
	}
	if in.Qualification != nil && strings.TrimSpace(*in.Qualification) != "" {
		d.Qualification = strings.TrimSpace(*in.Qualification)
	}
	if in.LicenseNumber != nil && strings.TrimSpace(*in.LicenseNumber) != "" {
		d.LicenseNumber = strings.TrimSpace(*in.LicenseNumber)
	}
	if in.Experience != nil {
		d.Experience = *in.Experience
	}
	if in.Availability != nil {
		d.Availability = in.Availability
	}
	if in.ConsultationFee != nil {
		d.ConsultationFee = *in.ConsultationFee
	}
	if in.Department != nil {
		d.Department = strings.TrimSpace(*in.Department)
	}
	if in.Bio != nil {
		d.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.IsAvailable != nil {
		d.IsAvailable = *in.IsAvailable
	}
	d.UpdatedAt = s.now().UTC()

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor profile: %w", err)
	}
	s.log.Info().Str("user_id", caller.UserID).Str("profile_id", d.ID).Msg("doctor profile updated")
	return d, nil
}

func validateDoctorUpdate(in ports.DoctorProfileUpdate) error {
	ve := &domain.ValidationError{Fields: map[string]string{}}
	if in.Experience != nil && *in.Experience < 0 {
		ve.Fields["experience"] = "experience cannot be negative"
	}
	if in.ConsultationFee != nil && *in.ConsultationFee < 0 {
		ve.Fields["consultationFee"] = "consultationFee cannot be negative"
	}
	for i, slot := range in.Availability {
		key := fmt.Sprintf("availability[%d]", i)
		switch {
		case !domain.ValidWeekday(slot.Day):
			ve.Fields[key] = "day must be a weekday name"
		case !domain.ValidClock(slot.StartTime) || !domain.ValidClock(slot.EndTime):
			ve.Fields[key] = "times must be HH:MM"
		case slot.StartTime >= slot.EndTime:
			ve.Fields[key] = "startTime must be before endTime"
		}
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

// pull fetches basic info for one user. Any failure yields an empty value.
func (s *ProfileService) pull(ctx context.Context, userID string) domain.BasicInfo {
	if s.directory == nil || userID == "" {
		return domain.BasicInfo{}
	}
	users, err := s.directory.FetchBasicInfo(ctx, []string{userID})
	if err != nil {
		metrics.ProfilePullsTotal.WithLabelValues("failed").Inc()
		s.log.Warn().Err(err).Str("user_id", userID).Msg("identity pull failed, using local fields")
		return domain.BasicInfo{}
	}
	for _, u := range users {
		if u.ID == userID {
			metrics.ProfilePullsTotal.WithLabelValues("filled").Inc()
			return u.BasicInfo.Normalize()
		}
	}
	metrics.ProfilePullsTotal.WithLabelValues("failed").Inc()
	s.log.Warn().Str("user_id", userID).Msg("identity pull returned no record")
	return domain.BasicInfo{}
}

func (s *ProfileService) newPatient(userID string, basic domain.BasicInfo) *domain.PatientProfile {
	now := s.now().UTC()
	return &domain.PatientProfile{
		ID:                uuid.NewString(),
		UserID:            userID,
		BasicInfo:         basic,
		Allergies:         []domain.Allergy{},
		ChronicConditions: []string{},
		Medications:       []domain.Medication{},
		MedicalHistory:    []domain.HistoryEntry{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *ProfileService) newDoctor(userID string, basic domain.BasicInfo) *domain.DoctorProfile {
	now := s.now().UTC()
	return &domain.DoctorProfile{
		ID:              uuid.NewString(),
		UserID:          userID,
		BasicInfo:       basic,
		Specialty:       domain.DefaultSpecialty,
		Qualification:   domain.DefaultQualification,
		LicenseNumber:   fmt.Sprintf("LIC-%d", now.UnixMilli()),
		Availability:    []domain.AvailabilitySlot{},
		ConsultationFee: domain.DefaultConsultationFee,
		IsAvailable:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
