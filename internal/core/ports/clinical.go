package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

type TestResultRepository interface {
	Create(ctx context.Context, r *domain.TestResult) error
	ListByPatient(ctx context.Context, patientID string) ([]*domain.TestResult, error)
	CountByPatient(ctx context.Context, patientID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	MarkNotified(ctx context.Context, id string) error
}

// ReferralFilter selects referrals. Empty fields mean "any".
type ReferralFilter struct {
	ReferringDoctorID string
	ReferredDoctorID  string
	PatientID         string
	Status            string
}

type ReferralRepository interface {
	Create(ctx context.Context, r *domain.Referral) error
	FindByID(ctx context.Context, id string) (*domain.Referral, error)
	Update(ctx context.Context, r *domain.Referral) error
	List(ctx context.Context, filter ReferralFilter) ([]*domain.Referral, error)
	CountPendingForDoctor(ctx context.Context, doctorID string) (int64, error)
}

// RecommendationFilter selects test recommendations. Empty fields mean "any".
type RecommendationFilter struct {
	DoctorID  string
	PatientID string
}

type RecommendationRepository interface {
	Create(ctx context.Context, r *domain.TestRecommendation) error
	FindByID(ctx context.Context, id string) (*domain.TestRecommendation, error)
	Update(ctx context.Context, r *domain.TestRecommendation) error
	List(ctx context.Context, filter RecommendationFilter) ([]*domain.TestRecommendation, error)
}

// AuditRecorder stores access records for medical resources.
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.AuditEntry) error
}

// TestResultInput is a doctor-entered result.
type TestResultInput struct {
	PatientID      string
	AppointmentID  string
	TestType       string
	TestName       string
	TestDate       time.Time
	Results        string
	NormalRange    string
	Unit           string
	Status         string
	Interpretation string
	Notes          string
}

// ReferralInput is a referral request from the treating doctor.
type ReferralInput struct {
	AppointmentID    string
	ReferredDoctorID string
	Reason           string
	SpecialtyNeeded  string
	Urgency          string
	Notes            string
}

// RecommendedTestInput is one test inside a recommendation request.
type RecommendedTestInput struct {
	Name    string
	Type    string
	Reason  string
	Urgency string
}

// RecommendationInput is a test recommendation request.
type RecommendationInput struct {
	AppointmentID    string
	Tests            []RecommendedTestInput
	Notes            string
	FollowUpRequired bool
}

// ReferralView is a referral with its participants attached.
type ReferralView struct {
	*domain.Referral
	Patient         *domain.ProfileSummary `json:"patient,omitempty"`
	ReferringDoctor *domain.ProfileSummary `json:"referringDoctor,omitempty"`
	ReferredDoctor  *domain.ProfileSummary `json:"referredDoctor,omitempty"`
}

// RecommendationView is a recommendation with its participants attached.
type RecommendationView struct {
	*domain.TestRecommendation
	Patient *domain.ProfileSummary `json:"patient,omitempty"`
	Doctor  *domain.ProfileSummary `json:"doctor,omitempty"`
}

// CareService covers test results, referrals and test recommendations.
type CareService interface {
	RecordTestResult(ctx context.Context, doctor domain.Identity, in TestResultInput) (*domain.TestResult, error)
	PatientTestResults(ctx context.Context, patient domain.Identity) ([]*domain.TestResult, error)

	CreateReferral(ctx context.Context, doctor domain.Identity, in ReferralInput) (*domain.Referral, error)
	SentReferrals(ctx context.Context, doctor domain.Identity) ([]*ReferralView, error)
	ReceivedReferrals(ctx context.Context, doctor domain.Identity) ([]*ReferralView, error)
	UpdateReferralStatus(ctx context.Context, doctor domain.Identity, referralID, status, notes string) (*domain.Referral, error)
	PatientReferrals(ctx context.Context, patient domain.Identity) ([]*ReferralView, error)

	CreateRecommendation(ctx context.Context, doctor domain.Identity, in RecommendationInput) (*domain.TestRecommendation, error)
	DoctorRecommendations(ctx context.Context, doctor domain.Identity) ([]*RecommendationView, error)
	PatientRecommendations(ctx context.Context, patient domain.Identity) ([]*RecommendationView, error)
	UpdateRecommendedTest(ctx context.Context, caller domain.Identity, recommendationID, testID, status string) (*domain.TestRecommendation, error)
}
