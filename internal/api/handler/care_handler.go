package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// CareHandler serves test results, referrals and test recommendations.
type CareHandler struct {
	care ports.CareService
}

func NewCareHandler(care ports.CareService) *CareHandler {
	return &CareHandler{care: care}
}

// RecordTestResult stores a result for a patient the doctor has seen.
//
// @Summary      Record a test result
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      testResultRequest  true  "Result"
// @Success      201   {object}  dataResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /doctors/test-results [post]
func (h *CareHandler) RecordTestResult(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req testResultRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toTestResultInput(req)
	if err != nil {
		return err
	}
	r, err := h.care.RecordTestResult(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, r.ID)
	return respondData(c, http.StatusCreated, r)
}

// PatientTestResults lists the caller's test results, newest first.
//
// @Summary      My test results
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /patients/test-results [get]
func (h *CareHandler) PatientTestResults(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.care.PatientTestResults(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondList(c, list)
}

// CreateReferral refers a patient to another doctor.
//
// @Summary      Create a referral
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      referralRequest  true  "Referral"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /referrals [post]
func (h *CareHandler) CreateReferral(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req referralRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ref, err := h.care.CreateReferral(c.Request().Context(), id, toReferralInput(req))
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, ref)
}

// SentReferrals lists referrals the calling doctor made.
//
// @Summary      Sent referrals
// @Tags         referrals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /referrals/sent [get]
func (h *CareHandler) SentReferrals(c echo.Context) error {
	return h.listReferrals(c, h.care.SentReferrals)
}

// ReceivedReferrals lists referrals addressed to the calling doctor.
//
// @Summary      Received referrals
// @Tags         referrals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /referrals/received [get]
func (h *CareHandler) ReceivedReferrals(c echo.Context) error {
	return h.listReferrals(c, h.care.ReceivedReferrals)
}

// PatientReferrals lists referrals concerning the calling patient.
//
// @Summary      My referrals
// @Tags         referrals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /referrals/my-referrals [get]
func (h *CareHandler) PatientReferrals(c echo.Context) error {
	return h.listReferrals(c, h.care.PatientReferrals)
}

func (h *CareHandler) listReferrals(c echo.Context, list func(context.Context, domain.Identity) ([]*ports.ReferralView, error)) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	refs, err := list(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondList(c, refs)
}

// UpdateReferralStatus lets the referred doctor accept, decline or complete.
//
// @Summary      Respond to a referral
// @Tags         referrals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Referral id"
// @Param        body  body      referralStatusRequest  true  "New status"
// @Success      200   {object}  dataResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /referrals/{id}/status [put]
func (h *CareHandler) UpdateReferralStatus(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req referralStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ref, err := h.care.UpdateReferralStatus(c.Request().Context(), id, c.Param("id"), req.Status, req.ResponseNotes)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, ref)
}

// CreateRecommendation asks a patient to take one or more tests.
//
// @Summary      Recommend tests
// @Tags         test-recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      recommendationRequest  true  "Tests"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /test-recommendations [post]
func (h *CareHandler) CreateRecommendation(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req recommendationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, err := h.care.CreateRecommendation(c.Request().Context(), id, toRecommendationInput(req))
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, rec)
}

// DoctorRecommendations lists recommendations the calling doctor made.
//
// @Summary      Recommendations I made
// @Tags         test-recommendations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /test-recommendations/doctor [get]
func (h *CareHandler) DoctorRecommendations(c echo.Context) error {
	return h.listRecommendations(c, h.care.DoctorRecommendations)
}

// PatientRecommendations lists recommendations for the calling patient.
//
// @Summary      My test recommendations
// @Tags         test-recommendations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /test-recommendations/patient [get]
func (h *CareHandler) PatientRecommendations(c echo.Context) error {
	return h.listRecommendations(c, h.care.PatientRecommendations)
}

func (h *CareHandler) listRecommendations(c echo.Context, list func(context.Context, domain.Identity) ([]*ports.RecommendationView, error)) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	recs, err := list(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondList(c, recs)
}

// UpdateTestStatus moves one recommended test along its lifecycle.
//
// @Summary      Update a recommended test
// @Tags         test-recommendations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Recommendation id"
// @Param        body  body      testStatusRequest  true  "Test and status"
// @Success      200   {object}  dataResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /test-recommendations/{id}/test-status [put]
func (h *CareHandler) UpdateTestStatus(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req testStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, err := h.care.UpdateRecommendedTest(c.Request().Context(), id, c.Param("id"), req.TestID, req.Status)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, rec)
}
