package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// ProfileFilter carries listing queries over patient and doctor profiles.
type ProfileFilter struct {
	IDs           []string // optional restriction to these profile ids
	Search        string   // partial match on name or email
	Specialty     string   // doctors only
	OnlyAvailable bool     // doctors only
	Page          int
	Limit         int // 0 returns every match
}

// PatientRepository persists patient profiles keyed by credential id.
type PatientRepository interface {
	// Create returns domain.ErrDuplicateProfile when the user already has a profile.
	Create(ctx context.Context, p *domain.PatientProfile) error
	FindByID(ctx context.Context, id string) (*domain.PatientProfile, error)
	FindByUserID(ctx context.Context, userID string) (*domain.PatientProfile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.PatientProfile, error)
	Update(ctx context.Context, p *domain.PatientProfile) error
	List(ctx context.Context, filter ProfileFilter) ([]*domain.PatientProfile, int64, error)
	Count(ctx context.Context) (int64, error)
}

// DoctorRepository persists doctor profiles keyed by credential id.
type DoctorRepository interface {
	Create(ctx context.Context, d *domain.DoctorProfile) error
	FindByID(ctx context.Context, id string) (*domain.DoctorProfile, error)
	FindByUserID(ctx context.Context, userID string) (*domain.DoctorProfile, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.DoctorProfile, error)
	Update(ctx context.Context, d *domain.DoctorProfile) error
	List(ctx context.Context, filter ProfileFilter) ([]*domain.DoctorProfile, int64, error)
	Count(ctx context.Context) (int64, error)
}

// IdentityDirectory is the medical side's read channel into the auth service.
type IdentityDirectory interface {
	FetchBasicInfo(ctx context.Context, userIDs []string) ([]domain.UserBasic, error)
	UserStats(ctx context.Context) (*UserStats, error)
}

// SyncProfileInput is the identity snapshot pushed after verification or admin changes.
type SyncProfileInput struct {
	UserID string
	Role   string
	domain.BasicInfo
}

// ProfileSyncer is the auth side's write channel into the medical service.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, in SyncProfileInput) error
}

// SyncResult reports the outcome of an inbound profile sync.
type SyncResult struct {
	Role      string `json:"role"`
	ProfileID string `json:"profileId,omitempty"`
	Created   bool   `json:"created"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// PatientProfileUpdate changes a patient profile. Nil or empty fields are left untouched.
type PatientProfileUpdate struct {
	Basic             domain.BasicInfo
	DateOfBirth       *time.Time
	Gender            *string
	Address           *string
	BloodType         *string
	Height            *domain.Measurement
	Weight            *domain.Measurement
	Allergies         []domain.Allergy
	ChronicConditions []string
	Medications       []domain.Medication
	EmergencyContact  *domain.EmergencyContact
	Insurance         *domain.InsuranceInfo
	MedicalHistory    []domain.HistoryEntry
}

// DoctorProfileUpdate changes a doctor profile. Nil or empty fields are left untouched.
type DoctorProfileUpdate struct {
	Basic           domain.BasicInfo
	Specialty       *string
	Qualification   *string
	LicenseNumber   *string
	Experience      *int
	Availability    []domain.AvailabilitySlot
	ConsultationFee *float64
	Department      *string
	Bio             *string
	IsAvailable     *bool
}

// ProfileService is the profile sync bridge plus owner edits.
type ProfileService interface {
	SyncProfile(ctx context.Context, in SyncProfileInput) (*SyncResult, error)
	EnsurePatientProfile(ctx context.Context, caller domain.Identity, overrides domain.BasicInfo) (*domain.PatientProfile, error)
	EnsureDoctorProfile(ctx context.Context, caller domain.Identity) (*domain.DoctorProfile, error)
	UpdatePatientProfile(ctx context.Context, caller domain.Identity, in PatientProfileUpdate) (*domain.PatientProfile, error)
	UpdateDoctorProfile(ctx context.Context, caller domain.Identity, in DoctorProfileUpdate) (*domain.DoctorProfile, error)
	RepairPatientProfile(ctx context.Context, p *domain.PatientProfile) *domain.PatientProfile
}
