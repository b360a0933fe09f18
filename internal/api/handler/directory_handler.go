package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// DirectoryHandler serves listings, dashboards and the admin record views.
type DirectoryHandler struct {
	directory ports.DirectoryService
}

func NewDirectoryHandler(directory ports.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

func profileQuery(c echo.Context) (ports.ProfileFilter, error) {
	page, limit, err := pageQuery(c)
	if err != nil {
		return ports.ProfileFilter{}, err
	}
	return ports.ProfileFilter{
		Search:    c.QueryParam("search"),
		Specialty: c.QueryParam("specialty"),
		Page:      page,
		Limit:     limit,
	}, nil
}

// Doctors lists available doctors for booking.
//
// @Summary      Find doctors
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        specialty  query     string  false  "Specialty"
// @Param        search     query     string  false  "Name or email"
// @Success      200        {object}  pageResponse
// @Router       /patients/doctors [get]
func (h *DirectoryHandler) Doctors(c echo.Context) error {
	filter, err := profileQuery(c)
	if err != nil {
		return err
	}
	filter.OnlyAvailable = true
	page, err := h.directory.ListDoctors(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// PatientDashboard returns the calling patient's counters.
//
// @Summary      Patient dashboard
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /patients/dashboard/stats [get]
func (h *DirectoryHandler) PatientDashboard(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.directory.PatientDashboard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, stats)
}

// DoctorDashboard returns the calling doctor's counters.
//
// @Summary      Doctor dashboard
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /doctors/dashboard/stats [get]
func (h *DirectoryHandler) DoctorDashboard(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	stats, err := h.directory.DoctorDashboard(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, stats)
}

// DoctorPatients lists patients who have booked with the calling doctor.
//
// @Summary      My patients
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email"
// @Success      200     {object}  listResponse
// @Router       /doctors/patients [get]
func (h *DirectoryHandler) DoctorPatients(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.directory.DoctorPatients(c.Request().Context(), id, c.QueryParam("search"))
	if err != nil {
		return err
	}
	return respondList(c, list)
}

// DoctorPatientDetails returns one of the calling doctor's patients.
//
// @Summary      Patient details
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient profile id"
// @Success      200  {object}  dataResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /doctors/patients/{id} [get]
func (h *DirectoryHandler) DoctorPatientDetails(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	details, err := h.directory.DoctorPatientDetails(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, c.Param("id"))
	return respondData(c, http.StatusOK, details)
}

// AdminStats returns portal-wide counters.
//
// @Summary      Admin statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /admin/stats [get]
func (h *DirectoryHandler) AdminStats(c echo.Context) error {
	stats, err := h.directory.AdminStats(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, stats)
}

// AdminPatients lists patient profiles.
//
// @Summary      All patients
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Name or email"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  pageResponse
// @Router       /admin/patients [get]
func (h *DirectoryHandler) AdminPatients(c echo.Context) error {
	filter, err := profileQuery(c)
	if err != nil {
		return err
	}
	page, err := h.directory.AdminPatients(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// AdminDoctors lists doctor profiles.
//
// @Summary      All doctors
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        search     query     string  false  "Name or email"
// @Param        specialty  query     string  false  "Specialty"
// @Param        page       query     int     false  "Page"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  pageResponse
// @Router       /admin/doctors [get]
func (h *DirectoryHandler) AdminDoctors(c echo.Context) error {
	filter, err := profileQuery(c)
	if err != nil {
		return err
	}
	page, err := h.directory.AdminDoctors(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondPage(c, page)
}

// AdminPatientDetails returns a patient with appointments and results.
//
// @Summary      Patient record
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient profile id"
// @Success      200  {object}  dataResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/patients/{id} [get]
func (h *DirectoryHandler) AdminPatientDetails(c echo.Context) error {
	details, err := h.directory.AdminPatientDetails(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, c.Param("id"))
	return respondData(c, http.StatusOK, details)
}

// AdminDoctorDetails returns a doctor with appointments.
//
// @Summary      Doctor record
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Doctor profile id"
// @Success      200  {object}  dataResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/doctors/{id} [get]
func (h *DirectoryHandler) AdminDoctorDetails(c echo.Context) error {
	details, err := h.directory.AdminDoctorDetails(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, details)
}
