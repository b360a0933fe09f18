package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// AppointmentHandler serves booking for patients, consultations for doctors
// and the admin appointment listing.
type AppointmentHandler struct {
	appointments ports.AppointmentService
}

func NewAppointmentHandler(appointments ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Book creates an appointment for the calling patient.
//
// @Summary      Book an appointment
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bookAppointmentRequest  true  "Slot and reason"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /patients/appointments [post]
func (h *AppointmentHandler) Book(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req bookAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toBookingInput(req)
	if err != nil {
		return err
	}
	view, err := h.appointments.Book(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, view.ID)
	return respondData(c, http.StatusCreated, view)
}

// PatientList lists the caller's appointments.
//
// @Summary      My appointments
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Success      200     {object}  listResponse
// @Router       /patients/appointments [get]
func (h *AppointmentHandler) PatientList(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	views, err := h.appointments.ListForPatient(c.Request().Context(), id, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return respondList(c, views)
}

// Cancel cancels one of the caller's appointments.
//
// @Summary      Cancel an appointment
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true   "Appointment id"
// @Param        body  body      cancelAppointmentRequest  false  "Reason"
// @Success      200   {object}  dataResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /patients/appointments/{id}/cancel [put]
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req cancelAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("body", "invalid payload")
	}
	a, err := h.appointments.Cancel(c.Request().Context(), id, c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, a.ID)
	return respondData(c, http.StatusOK, a)
}

// DoctorList lists the calling doctor's appointments.
//
// @Summary      Doctor appointments
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        date    query     string  false  "Day (YYYY-MM-DD)"
// @Success      200     {object}  listResponse
// @Router       /doctors/appointments [get]
func (h *AppointmentHandler) DoctorList(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var q doctorAppointmentQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return domain.NewValidationError("query", "invalid query parameters")
	}
	query, err := toDoctorQuery(q)
	if err != nil {
		return err
	}
	views, err := h.appointments.ListForDoctor(c.Request().Context(), id, query)
	if err != nil {
		return err
	}
	return respondList(c, views)
}

// Today lists the calling doctor's appointments for the current day.
//
// @Summary      Today's appointments
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse
// @Router       /doctors/appointments/today [get]
func (h *AppointmentHandler) Today(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	views, err := h.appointments.Today(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondList(c, views)
}

// UpdateConsultation records diagnosis, prescription and status.
//
// @Summary      Update a consultation
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Appointment id"
// @Param        body  body      consultationRequest  true  "Consultation"
// @Success      200   {object}  dataResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /doctors/appointments/{id} [put]
func (h *AppointmentHandler) UpdateConsultation(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var req consultationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := toConsultationUpdate(req)
	if err != nil {
		return err
	}
	a, err := h.appointments.UpdateConsultation(c.Request().Context(), id, c.Param("id"), in)
	if err != nil {
		return err
	}
	middleware.SetAuditResource(c, a.ID)
	return respondData(c, http.StatusOK, a)
}

// AdminList lists every appointment with optional filters.
//
// @Summary      All appointments
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Status"
// @Param        doctorId   query     string  false  "Doctor profile id"
// @Param        patientId  query     string  false  "Patient profile id"
// @Param        from       query     string  false  "First day (YYYY-MM-DD)"
// @Param        to         query     string  false  "Last day, inclusive (YYYY-MM-DD)"
// @Param        page       query     int     false  "Page"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  pageResponse
// @Router       /admin/appointments [get]
func (h *AppointmentHandler) AdminList(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}
	filter := ports.AppointmentFilter{
		DoctorID:  c.QueryParam("doctorId"),
		PatientID: c.QueryParam("patientId"),
		Page:      page,
		Limit:     limit,
	}
	if s := c.QueryParam("status"); s != "" {
		st := domain.AppointmentStatus(s)
		if !st.Valid() {
			return domain.NewValidationError("status", "unknown appointment status")
		}
		filter.Statuses = []domain.AppointmentStatus{st}
	}
	if v := c.QueryParam("from"); v != "" {
		if filter.From, err = domain.ParseDay(v); err != nil {
			return domain.NewValidationError("from", "from must be YYYY-MM-DD")
		}
	}
	if v := c.QueryParam("to"); v != "" {
		to, err := domain.ParseDay(v)
		if err != nil {
			return domain.NewValidationError("to", "to must be YYYY-MM-DD")
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	result, err := h.appointments.AdminList(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return respondPage(c, result)
}
