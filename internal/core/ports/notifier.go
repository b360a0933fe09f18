package ports

import (
	"context"
	"time"
)

// AppointmentNotice carries what confirmation and reminder mails show.
type AppointmentNotice struct {
	PatientName  string
	PatientEmail string
	DoctorName   string
	Specialty    string
	Date         time.Time
	StartTime    string
	EndTime      string
	Reason       string
}

// DigestEntry is one appointment line in a doctor's daily digest.
type DigestEntry struct {
	PatientName string
	StartTime   string
	EndTime     string
	Reason      string
	Status      string
}

// Notifier sends user-facing messages. Callers treat failures as best effort.
type Notifier interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, name, code string) error
	SendAppointmentConfirmation(ctx context.Context, n AppointmentNotice) error
	SendAppointmentReminder(ctx context.Context, n AppointmentNotice) error
	SendDoctorDigest(ctx context.Context, to, doctorName string, day time.Time, entries []DigestEntry) error
	SendTestResultReady(ctx context.Context, to, patientName, testName string) error
	SendReferral(ctx context.Context, to, doctorName, patientName, reason, urgency string) error
	SendTestRecommendation(ctx context.Context, to, patientName, doctorName string, tests []string) error
}

// JobReport summarises one run of a scheduled job.
type JobReport struct {
	Job     string `json:"job"`
	Scanned int    `json:"scanned"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// JobRunner runs the scheduled notifier jobs against an explicit clock reading.
type JobRunner interface {
	RunReminders(ctx context.Context, now time.Time) (*JobReport, error)
	RunDigest(ctx context.Context, now time.Time) (*JobReport, error)
}
