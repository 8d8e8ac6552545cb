package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"subdomtop/internal/config"
	"subdomtop/internal/database"
	"subdomtop/internal/dns"
	"subdomtop/internal/events"
	"subdomtop/internal/handlers"
	"subdomtop/internal/middleware"
	"subdomtop/internal/registry"
	"subdomtop/internal/scheduler"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Printf("Warning: failed to run migrations: %v", err)
	}

	reg := registry.NewSQL(db)
	users := registry.NewSQLUsers(db)
	gateway := dns.NewCloudflare(cfg.CloudflareAPIToken, cfg.CloudflareZoneID)
	hub := events.NewHub()

	// Surface a bad token at startup instead of on the first claim
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := gateway.VerifyToken(ctx); err != nil {
		log.Printf("Warning: Cloudflare token verification failed: %v", err)
	}
	cancel()

	router := mux.NewRouter()
	router.Use(middleware.CORS(os.Getenv("CORS_ALLOWED_ORIGINS")))
	router.Use(middleware.TenantResolver(cfg.ParentDomain, cfg.LocalDevHost))

	// Public routes
	authHandler := handlers.NewAuthHandler(db, hub)
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/password-reset", authHandler.RequestPasswordReset).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/password-reset/confirm", authHandler.ConfirmPasswordReset).Methods("POST", "OPTIONS")

	// Public tenant pages (anonymous, read-only)
	siteHandler := handlers.NewSiteHandler(reg, users)
	router.HandleFunc("/api/site", siteHandler.GetSite).Methods("GET", "OPTIONS")
	router.HandleFunc("/", siteHandler.ServeRoot).Methods("GET")

	// Protected API routes (requires user auth)
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	apiRouter.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/auth/password", authHandler.ChangePassword).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/auth/2fa/setup", authHandler.Setup2FA).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/auth/2fa/enable", authHandler.Enable2FA).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/auth/2fa/disable", authHandler.Disable2FA).Methods("POST", "OPTIONS")

	// Auth event stream (websocket, token via query param)
	eventsHandler := handlers.NewEventsHandler(hub)
	apiRouter.HandleFunc("/auth/events", eventsHandler.Stream).Methods("GET")

	// Subdomains
	subdomainsHandler := handlers.NewSubdomainsHandler(reg, gateway, cfg.ParentDomain, cfg.EdgeCNAMETarget)
	apiRouter.HandleFunc("/subdomains", subdomainsHandler.List).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/subdomains", subdomainsHandler.Claim).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/subdomains/{handle}/forwarding", subdomainsHandler.SetForwarding).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/subdomains/{handle}/status", subdomainsHandler.UpdateStatus).Methods("PUT", "OPTIONS")

	// DNS records (provider is the source of truth)
	recordsHandler := handlers.NewDNSRecordsHandler(reg, gateway, cfg.ParentDomain)
	apiRouter.HandleFunc("/subdomains/{handle}/records", recordsHandler.ListRecords).Methods("GET", "OPTIONS")
	apiRouter.HandleFunc("/subdomains/{handle}/records", recordsHandler.CreateRecord).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/subdomains/{handle}/records/{recordId}", recordsHandler.DeleteRecord).Methods("DELETE", "OPTIONS")

	// Reconcile sweep for orphaned edge CNAMEs
	sched := scheduler.New(reg, gateway, cfg.ParentDomain, cfg.EdgeCNAMETarget, cfg.ReconcileIntervalHours)
	sched.Start()
	defer sched.Stop()

	log.Printf("Server starting on port %s (parent domain %s)", cfg.Port, cfg.ParentDomain)
	log.Printf("DNS reconcile interval: %d hour(s)", cfg.ReconcileIntervalHours)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
