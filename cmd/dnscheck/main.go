package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"subdomtop/internal/config"
	"subdomtop/internal/dns"

	"github.com/joho/godotenv"
)

// Verifies the configured Cloudflare credentials and dumps the zone's records.
func main() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gateway := dns.NewCloudflare(cfg.CloudflareAPIToken, cfg.CloudflareZoneID)

	fmt.Println("Verifying Cloudflare token...")
	if err := gateway.VerifyToken(ctx); err != nil {
		fmt.Printf("ERROR: token verification failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Token OK")

	records, err := gateway.ListZoneRecords(ctx)
	if err != nil {
		fmt.Printf("ERROR: failed to list records: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Zone %s has %d records:\n", cfg.CloudflareZoneID, len(records))
	for _, r := range records {
		proxied := ""
		if r.Proxied {
			proxied = " (proxied)"
		}
		fmt.Printf("  %-6s %-40s -> %s%s\n", r.Type, r.Name, r.Content, proxied)
	}
}
