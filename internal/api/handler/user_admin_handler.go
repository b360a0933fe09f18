package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// UserAdminHandler serves admin credential management on the auth service.
type UserAdminHandler struct {
	users ports.UserAdminService
}

func NewUserAdminHandler(users ports.UserAdminService) *UserAdminHandler {
	return &UserAdminHandler{users: users}
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"omitempty,oneof=patient doctor admin"`
}

type updateUserRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Role      string `json:"role" validate:"omitempty,oneof=patient doctor admin"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=patient doctor admin"`
}

// List returns a page of credentials.
//
// @Summary      List users
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "Role filter"
// @Param        search  query     string  false  "Name or email"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size, max 100"
// @Success      200     {object}  pageResponse
// @Failure      403     {object}  ErrorResponse
// @Router       /auth/admin/users [get]
func (h *UserAdminHandler) List(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}
	result, err := h.users.ListUsers(c.Request().Context(), ports.CredentialFilter{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return respondPage(c, result)
}

// Get returns one credential.
//
// @Summary      Get a user
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  dataResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/admin/users/{id} [get]
func (h *UserAdminHandler) Get(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, user)
}

// Create adds a verified account with any role.
//
// @Summary      Create a user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account"
// @Success      201   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/admin/users [post]
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusCreated, user)
}

// Update changes basic fields and optionally the role.
//
// @Summary      Update a user
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  dataResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/admin/users/{id} [put]
func (h *UserAdminHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateUser(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, user)
}

// UpdateRole changes only the role.
//
// @Summary      Change a user's role
// @Tags         admin-users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  dataResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /auth/admin/users/{id}/role [put]
func (h *UserAdminHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, user)
}

// Delete removes a credential. Admins cannot delete themselves.
//
// @Summary      Delete a user
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /auth/admin/users/{id} [delete]
func (h *UserAdminHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "User deleted successfully")
}

// Stats returns credential counts for the admin dashboard.
//
// @Summary      User statistics
// @Tags         admin-users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Router       /auth/admin/stats [get]
func (h *UserAdminHandler) Stats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, stats)
}

// InternalStats is Stats for sibling services authenticated by service key.
//
// @Summary      User statistics (internal)
// @Tags         internal
// @Produce      json
// @Param        X-Service-Key  header    string  true  "Shared service key"
// @Success      200            {object}  statsResponse
// @Failure      401            {object}  ErrorResponse
// @Router       /auth/internal/users/stats [get]
func (h *UserAdminHandler) InternalStats(c echo.Context) error {
	stats, err := h.users.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	if stats.ByRole == nil {
		stats.ByRole = map[string]int64{domain.RolePatient: 0, domain.RoleDoctor: 0, domain.RoleAdmin: 0}
	}
	return c.JSON(http.StatusOK, statsResponse{Success: true, Stats: stats})
}
