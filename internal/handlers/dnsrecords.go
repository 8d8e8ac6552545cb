package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"subdomtop/internal/audit"
	"subdomtop/internal/auth"
	"subdomtop/internal/dns"
	"subdomtop/internal/registry"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DNSRecordsHandler exposes the provider's records for a claimed hostname.
// The provider is the source of truth; nothing is persisted locally.
type DNSRecordsHandler struct {
	registry     registry.Registry
	gateway      dns.Gateway
	parentDomain string
}

func NewDNSRecordsHandler(reg registry.Registry, gateway dns.Gateway, parentDomain string) *DNSRecordsHandler {
	return &DNSRecordsHandler{
		registry:     reg,
		gateway:      gateway,
		parentDomain: parentDomain,
	}
}

// requireOwner resolves the handle and verifies the session identity owns it.
func (h *DNSRecordsHandler) requireOwner(w http.ResponseWriter, r *http.Request) (handle string, ok bool) {
	claims := r.Context().Value("claims").(*auth.Claims)
	ownerID, _ := uuid.Parse(claims.UserID)
	handle = mux.Vars(r)["handle"]

	sub, err := h.registry.GetByHandle(r.Context(), handle)
	if errors.Is(err, registry.ErrNotFound) {
		http.Error(w, "Subdomain not found", http.StatusNotFound)
		return "", false
	}
	if err != nil {
		http.Error(w, "Registry operation failed", http.StatusInternalServerError)
		return "", false
	}
	if sub.OwnerID != ownerID {
		http.Error(w, "You do not own this subdomain", http.StatusForbidden)
		return "", false
	}
	return handle, true
}

// ListRecords returns the provider's records for the handle's hostname.
func (h *DNSRecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	records, err := h.gateway.ListRecords(r.Context(), handle+"."+h.parentDomain)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

type CreateRecordRequest struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl"`
	Proxied  bool   `json:"proxied"`
	Priority *int   `json:"priority,omitempty"`
}

// CreateRecord creates a record at the provider. The name is always the
// handle's hostname; callers cannot address other names in the zone.
func (h *DNSRecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	claims := r.Context().Value("claims").(*auth.Claims)

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !dns.IsValidRecordType(req.Type) {
		http.Error(w, "Invalid record type", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Record content is required", http.StatusBadRequest)
		return
	}

	record, err := h.gateway.CreateRecord(r.Context(), dns.Record{
		Type:     req.Type,
		Name:     handle + "." + h.parentDomain,
		Content:  req.Content,
		TTL:      req.TTL,
		Proxied:  req.Proxied,
		Priority: req.Priority,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	audit.Log(audit.EventDNSRecordCreated, claims.UserID, handle, map[string]interface{}{"type": req.Type})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// DeleteRecord removes a record by provider ID.
func (h *DNSRecordsHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	handle, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	claims := r.Context().Value("claims").(*auth.Claims)
	recordID := mux.Vars(r)["recordId"]

	if err := h.gateway.DeleteRecord(r.Context(), recordID); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	audit.Log(audit.EventDNSRecordDeleted, claims.UserID, handle, map[string]interface{}{"record_id": recordID})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Record deleted"})
}
