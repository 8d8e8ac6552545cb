package dns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Cloudflare implements Gateway against a single fixed zone. The token and
// zone ID come from configuration, never from source literals.
type Cloudflare struct {
	apiToken string
	zoneID   string
	baseURL  string
	client   *http.Client
}

func NewCloudflare(apiToken, zoneID string) *Cloudflare {
	return &Cloudflare{
		apiToken: apiToken,
		zoneID:   zoneID,
		baseURL:  "https://api.cloudflare.com/client/v4",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type cfResponse struct {
	Success bool            `json:"success"`
	Errors  []cfError       `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type cfError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError carries the provider's message verbatim. success=false is the sole
// error signal, regardless of HTTP status.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (g *Cloudflare) doRequest(ctx context.Context, method, path string, body interface{}) (*cfResponse, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+g.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result cfResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Success {
		if len(result.Errors) > 0 {
			return nil, &APIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		return nil, &APIError{Message: "Cloudflare request failed"}
	}

	return &result, nil
}

func (g *Cloudflare) VerifyToken(ctx context.Context) error {
	_, err := g.doRequest(ctx, "GET", "/user/tokens/verify", nil)
	return err
}

type cfRecord struct {
	ID         string    `json:"id,omitempty"`
	Type       string    `json:"type"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	TTL        int       `json:"ttl"`
	Proxied    bool      `json:"proxied"`
	Priority   *int      `json:"priority,omitempty"`
	ModifiedOn time.Time `json:"modified_on,omitempty"`
}

func (r cfRecord) toRecord() Record {
	return Record{
		ID:        r.ID,
		Type:      r.Type,
		Name:      r.Name,
		Content:   r.Content,
		TTL:       r.TTL,
		Proxied:   r.Proxied,
		Priority:  r.Priority,
		UpdatedAt: r.ModifiedOn,
	}
}

func (g *Cloudflare) listRecords(ctx context.Context, query string) ([]Record, error) {
	result, err := g.doRequest(ctx, "GET", "/zones/"+g.zoneID+"/dns_records"+query, nil)
	if err != nil {
		return nil, err
	}

	var cfRecords []cfRecord
	if err := json.Unmarshal(result.Result, &cfRecords); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}

	records := make([]Record, 0, len(cfRecords))
	for _, r := range cfRecords {
		records = append(records, r.toRecord())
	}
	return records, nil
}

func (g *Cloudflare) ListRecords(ctx context.Context, hostname string) ([]Record, error) {
	return g.listRecords(ctx, "?name="+url.QueryEscape(hostname))
}

func (g *Cloudflare) ListZoneRecords(ctx context.Context) ([]Record, error) {
	return g.listRecords(ctx, "?per_page=1000")
}

func (g *Cloudflare) CreateRecord(ctx context.Context, record Record) (*Record, error) {
	if record.TTL == 0 {
		record.TTL = 1 // 1 = auto
	}

	body := map[string]interface{}{
		"type":    record.Type,
		"name":    record.Name,
		"content": record.Content,
		"ttl":     record.TTL,
		"proxied": record.Proxied,
	}
	if record.Type == "MX" && record.Priority != nil {
		body["priority"] = *record.Priority
	}

	result, err := g.doRequest(ctx, "POST", "/zones/"+g.zoneID+"/dns_records", body)
	if err != nil {
		return nil, err
	}

	var created cfRecord
	if err := json.Unmarshal(result.Result, &created); err != nil {
		return nil, fmt.Errorf("failed to parse created record: %w", err)
	}

	record.ID = created.ID
	return &record, nil
}

func (g *Cloudflare) DeleteRecord(ctx context.Context, recordID string) error {
	_, err := g.doRequest(ctx, "DELETE", "/zones/"+g.zoneID+"/dns_records/"+recordID, nil)
	return err
}
