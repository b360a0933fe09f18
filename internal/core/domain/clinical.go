package domain

import "time"

// TestResultStatus is the interpretation state of a lab result.
type TestResultStatus string

const (
	TestResultPending   TestResultStatus = "pending"
	TestResultCompleted TestResultStatus = "completed"
	TestResultAbnormal  TestResultStatus = "abnormal"
)

func (s TestResultStatus) Valid() bool {
	return s == TestResultPending || s == TestResultCompleted || s == TestResultAbnormal
}

// TestResult is a lab or imaging result recorded by a doctor for a patient.
type TestResult struct {
	ID               string           `json:"id" bson:"_id"`
	PatientID        string           `json:"patientId" bson:"patient_id"`
	DoctorID         string           `json:"doctorId" bson:"doctor_id"`
	AppointmentID    string           `json:"appointmentId,omitempty" bson:"appointment_id,omitempty"`
	TestType         string           `json:"testType" bson:"test_type"`
	TestName         string           `json:"testName" bson:"test_name"`
	TestDate         time.Time        `json:"testDate" bson:"test_date"`
	Results          string           `json:"results" bson:"results"`
	NormalRange      string           `json:"normalRange,omitempty" bson:"normal_range,omitempty"`
	Unit             string           `json:"unit,omitempty" bson:"unit,omitempty"`
	Status           TestResultStatus `json:"status" bson:"status"`
	Interpretation   string           `json:"interpretation,omitempty" bson:"interpretation,omitempty"`
	Notes            string           `json:"notes,omitempty" bson:"notes,omitempty"`
	NotificationSent bool             `json:"notificationSent" bson:"notification_sent"`
	CreatedAt        time.Time        `json:"createdAt" bson:"created_at"`
}

// Urgency values shared by referrals.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

// ValidReferralUrgency reports whether u is a referral urgency. Empty selects medium.
func ValidReferralUrgency(u string) bool {
	switch u {
	case "", UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// ReferralStatus is the lifecycle state of a referral.
type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralAccepted  ReferralStatus = "accepted"
	ReferralDeclined  ReferralStatus = "declined"
	ReferralCompleted ReferralStatus = "completed"
)

var referralTransitions = map[ReferralStatus][]ReferralStatus{
	ReferralPending:  {ReferralAccepted, ReferralDeclined},
	ReferralAccepted: {ReferralCompleted},
}

// CanTransitionTo reports whether a referral may move from s to next.
func (s ReferralStatus) CanTransitionTo(next ReferralStatus) bool {
	for _, allowed := range referralTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Referral hands a patient from one doctor to another.
type Referral struct {
	ID                    string         `json:"id" bson:"_id"`
	PatientID             string         `json:"patientId" bson:"patient_id"`
	ReferringDoctorID     string         `json:"referringDoctorId" bson:"referring_doctor_id"`
	ReferredDoctorID      string         `json:"referredDoctorId" bson:"referred_doctor_id"`
	OriginalAppointmentID string         `json:"originalAppointmentId" bson:"original_appointment_id"`
	Reason                string         `json:"reason" bson:"reason"`
	SpecialtyNeeded       string         `json:"specialtyNeeded" bson:"specialty_needed"`
	Urgency               string         `json:"urgency" bson:"urgency"`
	Notes                 string         `json:"notes,omitempty" bson:"notes,omitempty"`
	Status                ReferralStatus `json:"status" bson:"status"`
	ResponseNotes         string         `json:"responseNotes,omitempty" bson:"response_notes,omitempty"`
	RespondedAt           *time.Time     `json:"respondedAt,omitempty" bson:"responded_at,omitempty"`
	CreatedAt             time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt             time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Test urgency values used by recommendations.
const (
	TestUrgencyRoutine = "routine"
	TestUrgencyUrgent  = "urgent"
	TestUrgencyStat    = "stat"
)

func ValidTestUrgency(u string) bool {
	switch u {
	case "", TestUrgencyRoutine, TestUrgencyUrgent, TestUrgencyStat:
		return true
	}
	return false
}

// RecommendedTestStatus tracks a single recommended test.
type RecommendedTestStatus string

const (
	RecommendedPending   RecommendedTestStatus = "pending"
	RecommendedScheduled RecommendedTestStatus = "scheduled"
	RecommendedCompleted RecommendedTestStatus = "completed"
	RecommendedCancelled RecommendedTestStatus = "cancelled"
)

var recommendedTransitions = map[RecommendedTestStatus][]RecommendedTestStatus{
	RecommendedPending:   {RecommendedScheduled, RecommendedCompleted, RecommendedCancelled},
	RecommendedScheduled: {RecommendedCompleted, RecommendedCancelled},
}

func (s RecommendedTestStatus) CanTransitionTo(next RecommendedTestStatus) bool {
	for _, allowed := range recommendedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type RecommendedTest struct {
	ID            string                `json:"id" bson:"id"`
	Name          string                `json:"name" bson:"name"`
	Type          string                `json:"type" bson:"type"`
	Reason        string                `json:"reason" bson:"reason"`
	Urgency       string                `json:"urgency" bson:"urgency"`
	Status        RecommendedTestStatus `json:"status" bson:"status"`
	ScheduledDate *time.Time            `json:"scheduledDate,omitempty" bson:"scheduled_date,omitempty"`
	CompletedDate *time.Time            `json:"completedDate,omitempty" bson:"completed_date,omitempty"`
}

// TestRecommendation is a set of tests a doctor asks a patient to take.
type TestRecommendation struct {
	ID               string            `json:"id" bson:"_id"`
	PatientID        string            `json:"patientId" bson:"patient_id"`
	DoctorID         string            `json:"doctorId" bson:"doctor_id"`
	AppointmentID    string            `json:"appointmentId" bson:"appointment_id"`
	Tests            []RecommendedTest `json:"tests" bson:"tests"`
	Notes            string            `json:"notes,omitempty" bson:"notes,omitempty"`
	FollowUpRequired bool              `json:"followUpRequired" bson:"follow_up_required"`
	NotificationSent bool              `json:"notificationSent" bson:"notification_sent"`
	CreatedAt        time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" bson:"updated_at"`
}

// AuditEntry records an access to a medical resource.
type AuditEntry struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"userId" bson:"user_id"`
	Role       string    `json:"role" bson:"role"`
	Action     string    `json:"action" bson:"action"`
	Resource   string    `json:"resource" bson:"resource"`
	ResourceID string    `json:"resourceId,omitempty" bson:"resource_id,omitempty"`
	Method     string    `json:"method" bson:"method"`
	Path       string    `json:"path" bson:"path"`
	Status     int       `json:"status" bson:"status"`
	IP         string    `json:"ip" bson:"ip"`
	At         time.Time `json:"at" bson:"at"`
}

// Audit actions.
const (
	AuditView   = "view"
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditCancel = "cancel"
)
