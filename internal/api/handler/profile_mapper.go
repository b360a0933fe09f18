package handler

import (
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// --- Request → Service input ---

func toSyncInput(req syncProfileRequest) ports.SyncProfileInput {
	return ports.SyncProfileInput{
		UserID: req.UserID,
		Role:   req.Role,
		BasicInfo: domain.BasicInfo{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Avatar:    req.Avatar,
		},
	}
}

func (r basicFieldsRequest) toBasic() domain.BasicInfo {
	return domain.BasicInfo{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Avatar:    r.Avatar,
	}
}

func toPatientUpdate(req updatePatientRequest) (ports.PatientProfileUpdate, error) {
	in := ports.PatientProfileUpdate{
		Basic:             req.toBasic(),
		Gender:            req.Gender,
		Address:           req.Address,
		BloodType:         req.BloodType,
		Height:            req.Height,
		Weight:            req.Weight,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		Medications:       req.Medications,
		EmergencyContact:  req.EmergencyContact,
		Insurance:         req.Insurance,
		MedicalHistory:    req.MedicalHistory,
	}
	if in.EmergencyContact == nil && (req.EmergencyContactName != "" || req.EmergencyContactPhone != "" || req.EmergencyContactRelation != "") {
		in.EmergencyContact = &domain.EmergencyContact{
			Name:         req.EmergencyContactName,
			Phone:        req.EmergencyContactPhone,
			Relationship: req.EmergencyContactRelation,
		}
	}
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		dob, err := domain.ParseDay(*req.DateOfBirth)
		if err != nil {
			return ports.PatientProfileUpdate{}, domain.NewValidationError("dateOfBirth", "dateOfBirth must be a date (YYYY-MM-DD)")
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

func toDoctorUpdate(req updateDoctorRequest) ports.DoctorProfileUpdate {
	in := ports.DoctorProfileUpdate{
		Basic:           req.toBasic(),
		Specialty:       req.Specialty,
		Qualification:   req.Qualification,
		LicenseNumber:   req.LicenseNumber,
		Experience:      req.Experience,
		ConsultationFee: req.ConsultationFee,
		Department:      req.Department,
		Bio:             req.Bio,
		IsAvailable:     req.IsAvailable,
	}
	if req.Availability != nil {
		in.Availability = make([]domain.AvailabilitySlot, len(req.Availability))
		for i, a := range req.Availability {
			in.Availability[i] = domain.AvailabilitySlot{Day: a.Day, StartTime: a.StartTime, EndTime: a.EndTime}
		}
	}
	return in
}
