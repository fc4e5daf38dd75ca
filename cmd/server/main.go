package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"alumnihub/internal/config"
	"alumnihub/internal/database"
	"alumnihub/internal/handlers"
	"alumnihub/internal/metrics"
	"alumnihub/internal/repository"
	"alumnihub/internal/security"
	"alumnihub/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	consentRepo := repository.NewConsentRepository(db)
	alumniRepo := repository.NewAlumniRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// Initialize services
	signer := security.NewTokenSigner(cfg.InvitationSecret, cfg.ProfileTokenSecret)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	authService := service.NewAuthService(accountRepo, cfg.SessionDuration, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectBaseURL)
	profileService := service.NewProfileService(db, profileRepo, consentRepo, signer, cfg.ProfileTokenTTL)
	invitationService := service.NewInvitationService(invitationRepo, accountRepo, emailService, signer, cfg.InvitationTTL)
	registrationService := service.NewRegistrationService(db, accountRepo, alumniRepo, invitationRepo, invitationService, profileService, emailService)
	consentService := service.NewConsentService(profileService)
	alumniService := service.NewAlumniService(alumniRepo)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Initialize handlers
	rateLimiter := security.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	middleware := handlers.NewMiddleware(authService, rateLimiter)
	authHandler := handlers.NewAuthHandler(authService, collector)
	registrationHandler := handlers.NewRegistrationHandler(registrationService, collector)
	profileHandler := handlers.NewProfileHandler(profileService, consentService, collector)
	adminHandler := handlers.NewAdminHandler(invitationService, profileService, alumniService, authService, collector)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google", authHandler.OAuthBegin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.OAuthCallback)
	mux.HandleFunc("GET /api/registration/preview", middleware.RateLimit(registrationHandler.Preview))
	mux.HandleFunc("POST /api/registration/complete", middleware.RateLimit(registrationHandler.Complete))

	// Authenticated routes
	mux.HandleFunc("GET /api/profiles", middleware.RequireAuth(profileHandler.List))
	mux.HandleFunc("POST /api/profiles/select", middleware.RequireAuth(profileHandler.Select))
	mux.HandleFunc("POST /api/profiles/{id}/birth-info", middleware.RequireAuth(profileHandler.UpdateBirthInfo))
	mux.HandleFunc("POST /api/profiles/{id}/consent", middleware.RequireAuth(profileHandler.Consent))
	mux.HandleFunc("GET /api/profiles/{id}/consent/history", middleware.RequireAuth(profileHandler.ConsentHistory))

	// Admin routes
	mux.HandleFunc("POST /api/admin/invitations", middleware.RequireAdmin(adminHandler.Invite))
	mux.HandleFunc("GET /api/admin/invitations", middleware.RequireAdmin(adminHandler.ListInvitations))
	mux.HandleFunc("POST /api/admin/invitations/reset", middleware.RequireAdmin(adminHandler.ResetInvitation))
	mux.HandleFunc("POST /api/admin/profiles/{id}/block", middleware.RequireAdmin(adminHandler.BlockProfile))
	mux.HandleFunc("POST /api/admin/profiles/{id}/revoke-consent", middleware.RequireAdmin(adminHandler.RevokeConsent))
	mux.HandleFunc("POST /api/admin/accounts/{id}/deactivate", middleware.RequireAdmin(adminHandler.DeactivateAccount))
	mux.HandleFunc("GET /api/alumni", middleware.RequireAdmin(adminHandler.SearchAlumni))
	mux.HandleFunc("GET /api/alumni/export", middleware.RequireAdmin(adminHandler.ExportAlumni))

	// Operational endpoints
	mux.Handle("GET /metrics", metrics.Handler(registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with logging and metrics middleware
	handler := handlers.LogRequests(collector.Middleware(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// cleanupExpiredSessions removes expired sessions every hour
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Session cleanup failed: %v", err)
		}
	}
}
