package domain

import (
	"fmt"
	"regexp"
	"time"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentInProgress AppointmentStatus = "in-progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no-show"
)

// appointmentTransitions lists the allowed moves. States absent from the map are terminal.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled:  {AppointmentConfirmed, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
	AppointmentConfirmed:  {AppointmentInProgress, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
	AppointmentInProgress: {AppointmentCompleted},
}

// ActiveAppointmentStatuses are the states that hold a slot and receive notifications.
var ActiveAppointmentStatuses = []AppointmentStatus{AppointmentScheduled, AppointmentConfirmed}

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentConfirmed, AppointmentInProgress,
		AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PrescriptionItem is one medication prescribed during a consultation.
type PrescriptionItem struct {
	Medication string `json:"medication" bson:"medication"`
	Dosage     string `json:"dosage" bson:"dosage"`
	Frequency  string `json:"frequency" bson:"frequency"`
	Duration   string `json:"duration" bson:"duration"`
}

type FollowUp struct {
	Required bool       `json:"required" bson:"required"`
	Date     *time.Time `json:"date,omitempty" bson:"date,omitempty"`
	Notes    string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Appointment links a patient profile and a doctor profile to a dated slot.
// Date is always midnight UTC of the appointment day.
type Appointment struct {
	ID                   string             `json:"id" bson:"_id"`
	PatientID            string             `json:"patientId" bson:"patient_id"`
	DoctorID             string             `json:"doctorId" bson:"doctor_id"`
	Date                 time.Time          `json:"date" bson:"date"`
	StartTime            string             `json:"startTime" bson:"start_time"`
	EndTime              string             `json:"endTime" bson:"end_time"`
	Status               AppointmentStatus  `json:"status" bson:"status"`
	Reason               string             `json:"reason" bson:"reason"`
	Symptoms             []string           `json:"symptoms" bson:"symptoms"`
	Notes                string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Diagnosis            string             `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Prescription         []PrescriptionItem `json:"prescription" bson:"prescription"`
	FollowUp             *FollowUp          `json:"followUp,omitempty" bson:"follow_up,omitempty"`
	CancelReason         string             `json:"cancelReason,omitempty" bson:"cancel_reason,omitempty"`
	ReminderSent         bool               `json:"reminderSent" bson:"reminder_sent"`
	ReferralID           string             `json:"referralId,omitempty" bson:"referral_id,omitempty"`
	TestRecommendationID string             `json:"testRecommendationId,omitempty" bson:"test_recommendation_id,omitempty"`
	CreatedAt            time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updatedAt" bson:"updated_at"`
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidClock reports whether v is a 24h HH:MM time.
func ValidClock(v string) bool {
	return clockPattern.MatchString(v)
}

// DayOf truncates t to midnight UTC of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date (or an RFC3339 timestamp) into midnight UTC.
func ParseDay(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", v, err)
	}
	return DayOf(t, time.UTC), nil
}
