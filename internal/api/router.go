package api

import (
	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-portal/internal/api/handler"
	"github.com/carelink/healthcare-portal/internal/api/middleware"
	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
	httpinfra "github.com/carelink/healthcare-portal/internal/infrastructure/http"
	"github.com/carelink/healthcare-portal/internal/infrastructure/ratelimit"
)

// AuthDeps are the collaborators of the auth service's HTTP surface.
type AuthDeps struct {
	Auth       ports.AuthService
	Users      ports.UserAdminService
	Cookies    handler.CookieConfig
	ServiceKey string
	// General applies to every public /api route, Strict additionally to the
	// credential-guessing endpoints.
	General ratelimit.Limiter
	Strict  ratelimit.Limiter
}

// MedicalDeps are the collaborators of the medical service's HTTP surface.
type MedicalDeps struct {
	Verifier     ports.TokenVerifier
	Profiles     ports.ProfileService
	Appointments ports.AppointmentService
	Care         ports.CareService
	Directory    ports.DirectoryService
	Audit        ports.AuditRecorder
	ServiceKey   string
	General      ratelimit.Limiter
}

func newEngine(cfg httpinfra.EngineConfig) *echo.Echo {
	e := httpinfra.NewEngine(cfg)
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)
	e.Validator = handler.NewValidator()
	return e
}

// NewAuthRouter builds the auth service.
func NewAuthRouter(cfg httpinfra.EngineConfig, deps AuthDeps) *echo.Echo {
	e := newEngine(cfg)
	log := cfg.Log

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookies)
	adminHandler := handler.NewUserAdminHandler(deps.Users)

	authn := middleware.Authenticate(deps.Auth, log)
	strict := middleware.RateLimit(deps.Strict, log)

	// --- Service-to-service routes (not rate limited per address) ---
	e.POST("/api/auth/verify-token", authHandler.VerifyToken)
	internal := e.Group("/api/auth/internal", middleware.ServiceKey(deps.ServiceKey))
	internal.POST("/users/basic", authHandler.BasicInfo)
	internal.GET("/users/stats", adminHandler.InternalStats)

	// --- Public auth routes ---
	auth := e.Group("/api/auth", middleware.RateLimit(deps.General, log))
	auth.POST("/register", authHandler.Register, strict)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-code", authHandler.ResendCode, strict)
	auth.POST("/login", authHandler.Login, strict)
	auth.POST("/refresh-token", authHandler.RefreshToken)
	auth.POST("/forgot-password", authHandler.ForgotPassword, strict)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", authHandler.Logout, authn)
	auth.GET("/me", authHandler.Me, authn)

	// --- Admin user management ---
	admin := auth.Group("/admin", authn, middleware.RequireRoles(domain.RoleAdmin))
	admin.GET("/users", adminHandler.List)
	admin.POST("/users", adminHandler.Create)
	admin.GET("/users/:id", adminHandler.Get)
	admin.PUT("/users/:id", adminHandler.Update)
	admin.PUT("/users/:id/role", adminHandler.UpdateRole)
	admin.DELETE("/users/:id", adminHandler.Delete)
	admin.GET("/stats", adminHandler.Stats)

	return e
}

// NewMedicalRouter builds the medical service.
func NewMedicalRouter(cfg httpinfra.EngineConfig, deps MedicalDeps) *echo.Echo {
	e := newEngine(cfg)
	log := cfg.Log

	profileHandler := handler.NewProfileHandler(deps.Profiles)
	appointmentHandler := handler.NewAppointmentHandler(deps.Appointments)
	careHandler := handler.NewCareHandler(deps.Care)
	directoryHandler := handler.NewDirectoryHandler(deps.Directory)

	authn := middleware.Authenticate(deps.Verifier, log)
	audit := func(action, resource string) echo.MiddlewareFunc {
		return middleware.Audit(deps.Audit, action, resource, log)
	}
	patientOnly := middleware.RequireRoles(domain.RolePatient)
	doctorOnly := middleware.RequireRoles(domain.RoleDoctor)

	// --- Service-to-service routes ---
	internal := e.Group("/api/internal", middleware.ServiceKey(deps.ServiceKey))
	internal.POST("/profiles/sync", profileHandler.Sync)

	api := e.Group("/api", middleware.RateLimit(deps.General, log), authn)

	// --- Patients ---
	patients := api.Group("/patients", patientOnly)
	patients.GET("/profile", profileHandler.PatientProfile, audit(domain.AuditView, "patient_profile"))
	patients.PUT("/profile", profileHandler.UpdatePatientProfile, audit(domain.AuditUpdate, "patient_profile"))
	patients.GET("/doctors", directoryHandler.Doctors)
	patients.GET("/dashboard/stats", directoryHandler.PatientDashboard)
	patients.GET("/appointments", appointmentHandler.PatientList)
	patients.POST("/appointments", appointmentHandler.Book, audit(domain.AuditCreate, "appointment"))
	patients.PUT("/appointments/:id/cancel", appointmentHandler.Cancel, audit(domain.AuditCancel, "appointment"))
	patients.GET("/test-results", careHandler.PatientTestResults)
	patients.GET("/referrals", careHandler.PatientReferrals)
	patients.GET("/test-recommendations", careHandler.PatientRecommendations)

	// --- Doctors ---
	doctors := api.Group("/doctors", doctorOnly)
	doctors.GET("/profile", profileHandler.DoctorProfile, audit(domain.AuditView, "doctor_profile"))
	doctors.PUT("/profile", profileHandler.UpdateDoctorProfile, audit(domain.AuditUpdate, "doctor_profile"))
	doctors.GET("/dashboard/stats", directoryHandler.DoctorDashboard)
	doctors.GET("/appointments", appointmentHandler.DoctorList)
	doctors.GET("/appointments/today", appointmentHandler.Today)
	doctors.PUT("/appointments/:id", appointmentHandler.UpdateConsultation, audit(domain.AuditUpdate, "appointment"))
	doctors.GET("/patients", directoryHandler.DoctorPatients)
	doctors.GET("/patients/:id", directoryHandler.DoctorPatientDetails, audit(domain.AuditView, "patient_profile"))
	doctors.POST("/test-results", careHandler.RecordTestResult, audit(domain.AuditCreate, "test_result"))

	// --- Referrals ---
	referrals := api.Group("/referrals")
	referrals.POST("", careHandler.CreateReferral, doctorOnly)
	referrals.GET("/sent", careHandler.SentReferrals, doctorOnly)
	referrals.GET("/received", careHandler.ReceivedReferrals, doctorOnly)
	referrals.PUT("/:id/status", careHandler.UpdateReferralStatus, doctorOnly)
	referrals.GET("/my-referrals", careHandler.PatientReferrals, patientOnly)

	// --- Test recommendations ---
	recommendations := api.Group("/test-recommendations")
	recommendations.POST("", careHandler.CreateRecommendation, doctorOnly)
	recommendations.GET("/doctor", careHandler.DoctorRecommendations, doctorOnly)
	recommendations.GET("/patient", careHandler.PatientRecommendations, patientOnly)
	recommendations.PUT("/:id/test-status", careHandler.UpdateTestStatus,
		middleware.RequireRoles(domain.RoleDoctor, domain.RolePatient))

	// --- Admin ---
	admin := api.Group("/admin", middleware.RequireRoles(domain.RoleAdmin))
	admin.GET("/stats", directoryHandler.AdminStats)
	admin.GET("/patients", directoryHandler.AdminPatients)
	admin.GET("/doctors", directoryHandler.AdminDoctors)
	admin.GET("/appointments", appointmentHandler.AdminList)
	admin.GET("/patients/:id", directoryHandler.AdminPatientDetails, audit(domain.AuditView, "patient_profile"))
	admin.GET("/doctors/:id", directoryHandler.AdminDoctorDetails)

	return e
}
