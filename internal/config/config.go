package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime settings. Everything comes from the environment;
// credentials are never embedded in source.
type Config struct {
	Port        string
	DatabaseURL string

	// Tenant addressing
	ParentDomain string
	LocalDevHost string

	// Cloudflare
	CloudflareAPIToken string
	CloudflareZoneID   string
	EdgeCNAMETarget    string

	ReconcileIntervalHours int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		ParentDomain:           getEnv("PARENT_DOMAIN", "tnxbd.top"),
		LocalDevHost:           getEnv("LOCAL_DEV_HOST", "localhost:3000"),
		CloudflareAPIToken:     os.Getenv("CLOUDFLARE_API_TOKEN"),
		CloudflareZoneID:       os.Getenv("CLOUDFLARE_ZONE_ID"),
		EdgeCNAMETarget:        getEnv("EDGE_CNAME_TARGET", "cname.vercel-dns.com"),
		ReconcileIntervalHours: 1,
	}

	if cfg.CloudflareAPIToken == "" {
		return nil, fmt.Errorf("CLOUDFLARE_API_TOKEN is required")
	}
	if cfg.CloudflareZoneID == "" {
		return nil, fmt.Errorf("CLOUDFLARE_ZONE_ID is required")
	}

	if intervalStr := os.Getenv("RECONCILE_INTERVAL_HOURS"); intervalStr != "" {
		if val, err := strconv.Atoi(intervalStr); err == nil && val > 0 {
			cfg.ReconcileIntervalHours = val
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
