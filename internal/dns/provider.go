package dns

import (
	"context"
	"time"
)

// Record represents a DNS record at the provider. The provider is the source
// of truth; records are mirrored in memory for display, never persisted.
type Record struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"` // A, AAAA, CNAME, MX, TXT, NS
	Name      string    `json:"name"` // Full hostname: acme.tnxbd.top
	Content   string    `json:"content"`
	TTL       int       `json:"ttl"` // 1 = auto
	Proxied   bool      `json:"proxied"`
	Priority  *int      `json:"priority,omitempty"` // MX only
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// RecordTypes lists the record types the console accepts.
var RecordTypes = []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"}

func IsValidRecordType(recordType string) bool {
	for _, t := range RecordTypes {
		if t == recordType {
			return true
		}
	}
	return false
}

// Gateway is the thin client over the DNS provider. List/create/delete only;
// no local caching, no reconciliation inside the gateway itself.
type Gateway interface {
	// VerifyToken checks that the configured API credential works
	VerifyToken(ctx context.Context) error

	// ListRecords fetches the records for one hostname
	ListRecords(ctx context.Context, hostname string) ([]Record, error)

	// ListZoneRecords fetches every record in the zone
	ListZoneRecords(ctx context.Context) ([]Record, error)

	// CreateRecord creates a record and returns it with the provider's ID
	CreateRecord(ctx context.Context, record Record) (*Record, error)

	// DeleteRecord removes a record by provider ID
	DeleteRecord(ctx context.Context, recordID string) error
}
