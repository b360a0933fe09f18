package handler

import (
	"strings"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// --- Request types ---

type testResultRequest struct {
	PatientID      string `json:"patientId" validate:"required"`
	AppointmentID  string `json:"appointmentId"`
	TestType       string `json:"testType" validate:"required"`
	TestName       string `json:"testName" validate:"required"`
	TestDate       string `json:"testDate"`
	Results        string `json:"results" validate:"required"`
	NormalRange    string `json:"normalRange"`
	Unit           string `json:"unit"`
	Status         string `json:"status" validate:"omitempty,oneof=pending completed abnormal"`
	Interpretation string `json:"interpretation"`
	Notes          string `json:"notes"`
}

type referralRequest struct {
	AppointmentID    string `json:"appointmentId" validate:"required"`
	ReferredDoctorID string `json:"referredDoctorId" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
	SpecialtyNeeded  string `json:"specialtyNeeded" validate:"required"`
	Urgency          string `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
	Notes            string `json:"notes"`
}

type referralStatusRequest struct {
	Status        string `json:"status" validate:"required,oneof=accepted declined completed"`
	ResponseNotes string `json:"responseNotes"`
}

type recommendedTestRequest struct {
	Name    string `json:"testName" validate:"required"`
	Type    string `json:"testType"`
	Reason  string `json:"reason"`
	Urgency string `json:"urgency" validate:"omitempty,oneof=routine urgent stat"`
}

type recommendationRequest struct {
	AppointmentID    string                   `json:"appointmentId" validate:"required"`
	Tests            []recommendedTestRequest `json:"tests" validate:"required,min=1,dive"`
	Notes            string                   `json:"notes"`
	FollowUpRequired bool                     `json:"followUpRequired"`
}

type testStatusRequest struct {
	TestID string `json:"testId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=pending scheduled completed cancelled"`
}

// --- Request → Service input ---

func toTestResultInput(req testResultRequest) (ports.TestResultInput, error) {
	in := ports.TestResultInput{
		PatientID:      req.PatientID,
		AppointmentID:  req.AppointmentID,
		TestType:       req.TestType,
		TestName:       req.TestName,
		Results:        req.Results,
		NormalRange:    req.NormalRange,
		Unit:           req.Unit,
		Status:         req.Status,
		Interpretation: req.Interpretation,
		Notes:          req.Notes,
	}
	if strings.TrimSpace(req.TestDate) != "" {
		day, err := domain.ParseDay(req.TestDate)
		if err != nil {
			return ports.TestResultInput{}, domain.NewValidationError("testDate", "testDate must be a date (YYYY-MM-DD)")
		}
		in.TestDate = day
	}
	return in, nil
}

func toReferralInput(req referralRequest) ports.ReferralInput {
	return ports.ReferralInput{
		AppointmentID:    req.AppointmentID,
		ReferredDoctorID: req.ReferredDoctorID,
		Reason:           req.Reason,
		SpecialtyNeeded:  req.SpecialtyNeeded,
		Urgency:          req.Urgency,
		Notes:            req.Notes,
	}
}

func toRecommendationInput(req recommendationRequest) ports.RecommendationInput {
	tests := make([]ports.RecommendedTestInput, len(req.Tests))
	for i, t := range req.Tests {
		tests[i] = ports.RecommendedTestInput{Name: t.Name, Type: t.Type, Reason: t.Reason, Urgency: t.Urgency}
	}
	return ports.RecommendationInput{
		AppointmentID:    req.AppointmentID,
		Tests:            tests,
		Notes:            req.Notes,
		FollowUpRequired: req.FollowUpRequired,
	}
}
