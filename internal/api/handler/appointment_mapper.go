package handler

import (
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// --- Request → Service input ---

func toBookingInput(req bookAppointmentRequest) (ports.BookAppointmentInput, error) {
	day, err := domain.ParseDay(req.Date)
	if err != nil {
		return ports.BookAppointmentInput{}, domain.NewValidationError("appointmentDate", "appointmentDate must be a date (YYYY-MM-DD)")
	}
	return ports.BookAppointmentInput{
		DoctorID:  req.DoctorID,
		Date:      day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Symptoms:  req.Symptoms,
	}, nil
}

func toConsultationUpdate(req consultationRequest) (ports.ConsultationUpdate, error) {
	in := ports.ConsultationUpdate{
		Status:    req.Status,
		Diagnosis: req.Diagnosis,
		Notes:     req.Notes,
	}
	if req.Prescription != nil {
		in.Prescription = make([]domain.PrescriptionItem, len(req.Prescription))
		for i, p := range req.Prescription {
			in.Prescription[i] = domain.PrescriptionItem{
				Medication: p.Medication,
				Dosage:     p.Dosage,
				Frequency:  p.Frequency,
				Duration:   p.Duration,
			}
		}
	}
	if req.FollowUp != nil {
		f := &domain.FollowUp{Required: req.FollowUp.Required, Notes: req.FollowUp.Notes}
		if req.FollowUp.Date != "" {
			day, err := domain.ParseDay(req.FollowUp.Date)
			if err != nil {
				return ports.ConsultationUpdate{}, domain.NewValidationError("followUp.date", "followUp.date must be a date (YYYY-MM-DD)")
			}
			f.Date = &day
		}
		in.FollowUp = f
	}
	return in, nil
}

func toDoctorQuery(q doctorAppointmentQuery) (ports.DoctorAppointmentQuery, error) {
	out := ports.DoctorAppointmentQuery{Status: q.Status}
	if q.Date != "" {
		day, err := domain.ParseDay(q.Date)
		if err != nil {
			return out, domain.NewValidationError("date", "date must be YYYY-MM-DD")
		}
		out.Date = &day
	}
	return out, nil
}
