package handler

// --- Request types ---

type bookAppointmentRequest struct {
	DoctorID  string     `json:"doctorId" validate:"required"`
	Date      string     `json:"appointmentDate" validate:"required"`
	StartTime string     `json:"startTime" validate:"required,clock"`
	EndTime   string     `json:"endTime" validate:"required,clock"`
	Reason    string     `json:"reason" validate:"required"`
	Symptoms  stringList `json:"symptoms"`
}

type cancelAppointmentRequest struct {
	Reason string `json:"cancelReason"`
}

type prescriptionRequest struct {
	Medication string `json:"medication" validate:"required"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
}

type followUpRequest struct {
	Required bool   `json:"required"`
	Date     string `json:"date"`
	Notes    string `json:"notes"`
}

type consultationRequest struct {
	Status       string                `json:"status" validate:"omitempty,oneof=scheduled confirmed in-progress completed cancelled no-show"`
	Diagnosis    *string               `json:"diagnosis"`
	Prescription []prescriptionRequest `json:"prescription" validate:"omitempty,dive"`
	Notes        *string               `json:"notes"`
	FollowUp     *followUpRequest      `json:"followUp"`
}

// doctorAppointmentQuery holds the query string of a doctor's appointment list.
type doctorAppointmentQuery struct {
	Status string `query:"status"`
	Date   string `query:"date"`
}

