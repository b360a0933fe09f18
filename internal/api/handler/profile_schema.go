package handler

import (
	"encoding/json"
	"strings"

	"github.com/carelink/healthcare-portal/internal/core/domain"
)

// --- Request types ---

type syncProfileRequest struct {
	UserID    string `json:"userId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Role      string `json:"role" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
}

type basicFieldsRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
}

type updatePatientRequest struct {
	basicFieldsRequest
	DateOfBirth       *string                  `json:"dateOfBirth"`
	Gender            *string                  `json:"gender" validate:"omitempty,oneof=male female other"`
	Address           *string                  `json:"address"`
	BloodType         *string                  `json:"bloodType" validate:"omitempty,bloodtype"`
	Height            *domain.Measurement      `json:"height"`
	Weight            *domain.Measurement      `json:"weight"`
	Allergies         allergyList              `json:"allergies"`
	ChronicConditions stringList               `json:"chronicConditions"`
	Medications       medicationList           `json:"medications"`
	EmergencyContact  *domain.EmergencyContact `json:"emergencyContact"`
	Insurance         *domain.InsuranceInfo    `json:"insuranceInfo"`
	MedicalHistory    historyList              `json:"medicalHistory"`

	// Flat emergency contact fields sent by the profile form.
	EmergencyContactName     string `json:"emergencyContactName"`
	EmergencyContactPhone    string `json:"emergencyContactPhone"`
	EmergencyContactRelation string `json:"emergencyContactRelation"`
}

type availabilityRequest struct {
	Day       string `json:"day" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
}

type updateDoctorRequest struct {
	basicFieldsRequest
	Specialty       *string               `json:"specialty"`
	Qualification   *string               `json:"qualification"`
	LicenseNumber   *string               `json:"licenseNumber"`
	Experience      *int                  `json:"experience" validate:"omitempty,gte=0"`
	Availability    []availabilityRequest `json:"availability" validate:"omitempty,dive"`
	ConsultationFee *float64              `json:"consultationFee" validate:"omitempty,gte=0"`
	Department      *string               `json:"department"`
	Bio             *string               `json:"bio"`
	IsAvailable     *bool                 `json:"isAvailable"`
}

// stringList accepts either a JSON array of strings or a single comma
// separated string. A JSON null leaves the list nil.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err == nil {
		*l = splitList(joined)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	*l = out
	return nil
}

// allergyList, medicationList and historyList accept a comma separated
// string, an array of names, or an array of full objects.
type (
	allergyList    []domain.Allergy
	medicationList []domain.Medication
	historyList    []domain.HistoryEntry
)

func (l *allergyList) UnmarshalJSON(b []byte) error {
	return decodeNamed(b, (*[]domain.Allergy)(l), func(n string) domain.Allergy {
		return domain.Allergy{Allergen: n}
	})
}

func (l *medicationList) UnmarshalJSON(b []byte) error {
	return decodeNamed(b, (*[]domain.Medication)(l), func(n string) domain.Medication {
		return domain.Medication{Name: n}
	})
}

func (l *historyList) UnmarshalJSON(b []byte) error {
	return decodeNamed(b, (*[]domain.HistoryEntry)(l), func(n string) domain.HistoryEntry {
		return domain.HistoryEntry{Condition: n}
	})
}

func decodeNamed[T any](b []byte, out *[]T, fromName func(string) T) error {
	if string(b) == "null" {
		return nil
	}
	var names stringList
	if err := names.UnmarshalJSON(b); err == nil {
		items := make([]T, 0, len(names))
		for _, n := range names {
			items = append(items, fromName(n))
		}
		*out = items
		return nil
	}
	return json.Unmarshal(b, out)
}

func splitList(joined string) []string {
	out := []string{}
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
