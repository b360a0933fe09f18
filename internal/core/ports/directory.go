package ports

import (
	"context"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

type PatientStats struct {
	UpcomingAppointments  int64 `json:"upcomingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	TotalAppointments     int64 `json:"totalAppointments"`
	TestResults           int64 `json:"testResults"`
}

type DoctorStats struct {
	TodayAppointments     int64 `json:"todayAppointments"`
	UpcomingAppointments  int64 `json:"upcomingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	TotalPatients         int64 `json:"totalPatients"`
	PendingReferrals      int64 `json:"pendingReferrals"`
}

type AdminStats struct {
	Patients          int64      `json:"totalPatients"`
	Doctors           int64      `json:"totalDoctors"`
	Appointments      int64      `json:"totalAppointments"`
	TodayAppointments int64      `json:"todayAppointments"`
	TestResults       int64      `json:"totalTestResults"`
	Users             *UserStats `json:"users,omitempty"`
}

// PatientDetails is a patient profile with its clinical history.
type PatientDetails struct {
	Patient      *domain.PatientProfile `json:"patient"`
	Appointments []*AppointmentView     `json:"appointments"`
	TestResults  []*domain.TestResult   `json:"testResults"`
}

// DoctorDetails is a doctor profile with its appointments.
type DoctorDetails struct {
	Doctor       *domain.DoctorProfile `json:"doctor"`
	Appointments []*AppointmentView    `json:"appointments"`
}

// DirectoryService covers listings, dashboards and admin views.
type DirectoryService interface {
	ListDoctors(ctx context.Context, filter ProfileFilter) (*Page[*domain.DoctorProfile], error)
	PatientDashboard(ctx context.Context, patient domain.Identity) (*PatientStats, error)
	DoctorDashboard(ctx context.Context, doctor domain.Identity) (*DoctorStats, error)
	DoctorPatients(ctx context.Context, doctor domain.Identity, search string) ([]*domain.PatientProfile, error)
	DoctorPatientDetails(ctx context.Context, doctor domain.Identity, patientID string) (*PatientDetails, error)

	AdminStats(ctx context.Context) (*AdminStats, error)
	AdminPatients(ctx context.Context, filter ProfileFilter) (*Page[*domain.PatientProfile], error)
	AdminDoctors(ctx context.Context, filter ProfileFilter) (*Page[*domain.DoctorProfile], error)
	AdminPatientDetails(ctx context.Context, patientID string) (*PatientDetails, error)
	AdminDoctorDetails(ctx context.Context, doctorID string) (*DoctorDetails, error)
}
