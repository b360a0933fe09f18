package ports

import (
	"context"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// AppointmentFilter selects appointments. Zero values mean "any".
type AppointmentFilter struct {
	PatientID    string
	DoctorID     string
	Statuses     []domain.AppointmentStatus
	From         time.Time // date >= From
	To           time.Time // date < To
	ReminderSent *bool
	Page         int
	Limit        int // 0 returns every match
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	FindByID(ctx context.Context, id string) (*domain.Appointment, error)
	Update(ctx context.Context, a *domain.Appointment) error
	List(ctx context.Context, filter AppointmentFilter) ([]*domain.Appointment, int64, error)
	Count(ctx context.Context, filter AppointmentFilter) (int64, error)
	// SlotTaken reports whether an active appointment holds the doctor's slot.
	// It is a plain read; callers that insert afterwards can still race.
	SlotTaken(ctx context.Context, doctorID string, date time.Time, startTime string) (bool, error)
	MarkReminderSent(ctx context.Context, id string) error
	PatientIDsForDoctor(ctx context.Context, doctorID string) ([]string, error)
	HaveMet(ctx context.Context, doctorID, patientID string) (bool, error)
}

// AppointmentView is an appointment with the counterpart profiles attached.
type AppointmentView struct {
	*domain.Appointment
	Patient *domain.ProfileSummary `json:"patient,omitempty"`
	Doctor  *domain.ProfileSummary `json:"doctor,omitempty"`
}

// BookAppointmentInput is a patient booking request.
type BookAppointmentInput struct {
	DoctorID  string
	Date      time.Time
	StartTime string
	EndTime   string
	Reason    string
	Symptoms  []string
}

// DoctorAppointmentQuery filters a doctor's own appointment list.
type DoctorAppointmentQuery struct {
	Status string
	Date   *time.Time
}

// ConsultationUpdate is what a doctor records on an appointment.
type ConsultationUpdate struct {
	Status       string
	Diagnosis    *string
	Prescription []domain.PrescriptionItem
	Notes        *string
	FollowUp     *domain.FollowUp
}

// AppointmentService is booking and consultation management.
type AppointmentService interface {
	Book(ctx context.Context, patient domain.Identity, in BookAppointmentInput) (*AppointmentView, error)
	ListForPatient(ctx context.Context, patient domain.Identity, status string) ([]*AppointmentView, error)
	Cancel(ctx context.Context, patient domain.Identity, appointmentID, reason string) (*domain.Appointment, error)
	ListForDoctor(ctx context.Context, doctor domain.Identity, q DoctorAppointmentQuery) ([]*AppointmentView, error)
	Today(ctx context.Context, doctor domain.Identity) ([]*AppointmentView, error)
	UpdateConsultation(ctx context.Context, doctor domain.Identity, appointmentID string, in ConsultationUpdate) (*domain.Appointment, error)
	AdminList(ctx context.Context, filter AppointmentFilter) (*Page[*AppointmentView], error)
}
