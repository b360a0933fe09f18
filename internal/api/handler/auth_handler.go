package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// CookieConfig controls the session cookies set on login and verification.
type CookieConfig struct {
	Secure    bool
	AccessTTL time.Duration // lifetime of the access cookie set on refresh
}

type AuthHandler struct {
	auth    ports.AuthService
	cookies CookieConfig
	now     func() time.Time
}

func NewAuthHandler(auth ports.AuthService, cookies CookieConfig) *AuthHandler {
	if cookies.AccessTTL <= 0 {
		cookies.AccessTTL = 24 * time.Hour
	}
	return &AuthHandler{auth: auth, cookies: cookies, now: time.Now}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
	Password string `json:"password" validate:"required,min=6"`
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type basicInfoRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1"`
}

type registerData struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type sessionResponse struct {
	Success      bool               `json:"success"`
	Token        string             `json:"token"`
	RefreshToken string             `json:"refreshToken"`
	User         *domain.Credential `json:"user"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type verifyTokenResponse struct {
	Success bool             `json:"success"`
	Valid   bool             `json:"valid"`
	User    *domain.Identity `json:"user"`
}

type basicInfoResponse struct {
	Success bool               `json:"success"`
	Users   []domain.UserBasic `json:"users"`
}

type statsResponse struct {
	Success bool             `json:"success"`
	Stats   *ports.UserStats `json:"stats"`
}

// Register creates an unverified patient account and mails a verification code.
//
// @Summary      Register a new patient account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  dataResponse
// @Success      200   {object}  dataResponse  "unverified duplicate, code resent"
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}

	data := registerData{UserID: res.Credential.ID, Email: res.Credential.Email}
	if res.Resent {
		return c.JSON(http.StatusOK, dataResponse{
			Success: true,
			Message: "Account exists but is not verified. A new verification code has been sent.",
			Data:    data,
		})
	}
	return c.JSON(http.StatusCreated, dataResponse{
		Success: true,
		Message: "Registration successful. Please check your email for the verification code.",
		Data:    data,
	})
}

// VerifyEmail consumes a verification code and opens a session.
//
// @Summary      Verify email with a 6-digit code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Email and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.VerifyEmail(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

// ResendCode mails a fresh verification code.
//
// @Summary      Resend the verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /auth/resend-code [post]
func (h *AuthHandler) ResendCode(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResendCode(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "Verification code sent")
}

// Login authenticates a verified account and sets the session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      429   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondSession(c, session)
}

// RefreshToken issues a new access token. The refresh token comes from the
// cookie, or from the body for non-browser clients.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token when no cookie is sent"
// @Success      200   {object}  tokenResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	token, err := h.presentedRefreshToken(c)
	if err != nil {
		return err
	}
	access, err := h.auth.RefreshAccessToken(c.Request().Context(), token)
	if err != nil {
		return err
	}
	c.SetCookie(h.cookie(middleware.AccessCookie, access, h.now().Add(h.cookies.AccessTTL)))
	return c.JSON(http.StatusOK, tokenResponse{Success: true, Token: access})
}

// Logout revokes the presented refresh token and clears the cookies.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	token, err := h.presentedRefreshToken(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Request().Context(), id.UserID, token); err != nil {
		return err
	}
	c.SetCookie(h.expired(middleware.AccessCookie))
	c.SetCookie(h.expired(middleware.RefreshCookie))
	return respondMessage(c, http.StatusOK, "Logged out successfully")
}

// Me returns the caller's account without secrets.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dataResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	cred, err := h.auth.Me(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, cred)
}

// ForgotPassword mails a reset code. It answers the same whether or not the
// account exists.
//
// @Summary      Request a password reset code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      emailRequest  true  "Email"
// @Success      200   {object}  messageResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "If an account exists for this email, a reset code has been sent")
}

// ResetPassword consumes a reset code and sets a new password.
//
// @Summary      Reset the password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Email, code and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  ErrorResponse
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.Password); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "Password reset successful. Please log in with your new password.")
}

// VerifyToken resolves an access token for sibling services.
//
// @Summary      Verify an access token
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        body  body      verifyTokenRequest  false  "Token when no bearer header is sent"
// @Success      200   {object}  verifyTokenResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /auth/verify-token [post]
func (h *AuthHandler) VerifyToken(c echo.Context) error {
	var req verifyTokenRequest
	if err := bindOptional(c, &req); err != nil {
		return err
	}
	token := req.Token
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		return domain.ErrUnauthenticated
	}

	id, err := h.auth.VerifyAccessToken(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyTokenResponse{Success: true, Valid: true, User: id})
}

// BasicInfo returns public identity fields for a batch of user ids.
//
// @Summary      Basic user info
// @Tags         internal
// @Accept       json
// @Produce      json
// @Param        X-Service-Key  header    string            true  "Shared service key"
// @Param        body           body      basicInfoRequest  true  "User ids"
// @Success      200            {object}  basicInfoResponse
// @Failure      401            {object}  ErrorResponse
// @Router       /auth/internal/users/basic [post]
func (h *AuthHandler) BasicInfo(c echo.Context) error {
	var req basicInfoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	users, err := h.auth.BasicInfo(c.Request().Context(), req.UserIDs)
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.UserBasic{}
	}
	return c.JSON(http.StatusOK, basicInfoResponse{Success: true, Users: users})
}

func (h *AuthHandler) respondSession(c echo.Context, s *ports.Session) error {
	c.SetCookie(h.cookie(middleware.AccessCookie, s.AccessToken, s.AccessExpiresAt))
	c.SetCookie(h.cookie(middleware.RefreshCookie, s.RefreshToken, s.RefreshExpiresAt))
	return c.JSON(http.StatusOK, sessionResponse{
		Success:      true,
		Token:        s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         s.User,
	})
}

func (h *AuthHandler) presentedRefreshToken(c echo.Context) (string, error) {
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	var req refreshRequest
	if err := bindOptional(c, &req); err != nil {
		return "", err
	}
	return req.RefreshToken, nil
}

func (h *AuthHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(h.now()).Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
