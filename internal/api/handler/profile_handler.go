package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// ProfileHandler serves the profile sync bridge and the owner profile pages.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Sync creates or merges the medical profile of a credential.
//
// @Summary      Sync a profile from the auth service
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        X-Service-Key  header    string              true  "Shared service key"
// @Param        body           body      syncProfileRequest  true  "Identity snapshot"
// @Success      200            {object}  dataResponse
// @Failure      400            {object}  ErrorResponse
// @Failure      401            {object}  ErrorResponse
// @Router       /internal/profiles/sync [post]
func (h *ProfileHandler) Sync(c echo.Context) error {
	var req syncProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.profiles.SyncProfile(c.Request().Context(), toSyncInput(req))
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, res)
}

// PatientProfile returns the caller's patient profile, creating it on first use.
//
// @Summary      Get my patient profile
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /patients/profile [get]
func (h *ProfileHandler) PatientProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	p, err := h.profiles.EnsurePatientProfile(c.Request().Context(), id, domain.BasicInfo{})
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, p.ID)
	return respondData(c, http.StatusOK, p)
}

// UpdatePatientProfile edits the caller's patient profile.
//
// @Summary      Update my patient profile
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updatePatientRequest  true  "Fields to change"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /patients/profile [put]
func (h *ProfileHandler) UpdatePatientProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req updatePatientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toPatientUpdate(req)
	if err != nil {
		return err
	}
	p, err := h.profiles.UpdatePatientProfile(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, p.ID)
	return respondData(c, http.StatusOK, p)
}

// DoctorProfile returns the caller's doctor profile, creating it on first use.
//
// @Summary      Get my doctor profile
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /doctors/profile [get]
func (h *ProfileHandler) DoctorProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	d, err := h.profiles.EnsureDoctorProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, d.ID)
	return respondData(c, http.StatusOK, d)
}

// UpdateDoctorProfile edits the caller's doctor profile.
//
// @Summary      Update my doctor profile
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateDoctorRequest  true  "Fields to change"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /doctors/profile [put]
func (h *ProfileHandler) UpdateDoctorProfile(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req updateDoctorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.profiles.UpdateDoctorProfile(c.Request().Context(), id, toDoctorUpdate(req))
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, d.ID)
	return respondData(c, http.StatusOK, d)
}
