package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"subdomtop/internal/audit"
	"subdomtop/internal/auth"
	"subdomtop/internal/dns"
	"subdomtop/internal/registry"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// SubdomainsHandler is the owner's console surface over the handle registry.
type SubdomainsHandler struct {
	registry     registry.Registry
	gateway      dns.Gateway
	parentDomain string
	edgeTarget   string
}

func NewSubdomainsHandler(reg registry.Registry, gateway dns.Gateway, parentDomain, edgeTarget string) *SubdomainsHandler {
	return &SubdomainsHandler{
		registry:     reg,
		gateway:      gateway,
		parentDomain: parentDomain,
		edgeTarget:   edgeTarget,
	}
}

func (h *SubdomainsHandler) hostname(handle string) string {
	return handle + "." + h.parentDomain
}

// List returns the caller's claimed subdomains.
func (h *SubdomainsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value("claims").(*auth.Claims)
	ownerID, _ := uuid.Parse(claims.UserID)

	subs, err := h.registry.ListByOwner(r.Context(), ownerID)
	if err != nil {
		log.Printf("Failed to list subdomains: %v", err)
		http.Error(w, "Failed to list subdomains", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

type ClaimRequest struct {
	Handle string `json:"handle"`
}

// Claim registers a handle: normalize, availability pre-check, edge CNAME,
// then the registry insert. The pre-check only avoids a wasted DNS call; the
// store's key constraint settles races. A DNS failure aborts the claim; a
// registry failure after the CNAME went in triggers a compensating delete.
func (h *SubdomainsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value("claims").(*auth.Claims)
	ownerID, _ := uuid.Parse(claims.UserID)

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	handle := registry.Normalize(req.Handle)
	if handle == "" || handle == "www" {
		http.Error(w, "Invalid handle", http.StatusBadRequest)
		return
	}

	available, err := h.registry.CheckAvailable(r.Context(), handle)
	if err != nil {
		log.Printf("Availability check failed for %s: %v", handle, err)
		http.Error(w, "Failed to check availability", http.StatusInternalServerError)
		return
	}
	if !available {
		http.Error(w, "This name is already claimed", http.StatusConflict)
		return
	}

	record, err := h.gateway.CreateRecord(r.Context(), dns.Record{
		Type:    "CNAME",
		Name:    h.hostname(handle),
		Content: h.edgeTarget,
		TTL:     1,
		Proxied: true,
	})
	if err != nil {
		// Provider error message passes through verbatim
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	sub, err := h.registry.Claim(r.Context(), handle, ownerID)
	if err != nil {
		// The CNAME exists but the claim did not commit; compensate. The
		// reconcile sweep catches anything this delete misses.
		if delErr := h.gateway.DeleteRecord(r.Context(), record.ID); delErr != nil {
			log.Printf("Failed to delete record %s after claim failure: %v", record.ID, delErr)
		}
		if errors.Is(err, registry.ErrAlreadyClaimed) {
			http.Error(w, "This name is already claimed", http.StatusConflict)
			return
		}
		log.Printf("Claim insert failed for %s: %v", handle, err)
		http.Error(w, "Failed to claim subdomain", http.StatusInternalServerError)
		return
	}

	audit.Log(audit.EventHandleClaimed, claims.UserID, handle, nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

type ForwardingRequest struct {
	ForwardingURL string `json:"forwarding_url"`
}

// SetForwarding sets or clears the forwarding URL. Owner only; the identity
// comes from the session, never from the body.
func (h *SubdomainsHandler) SetForwarding(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value("claims").(*auth.Claims)
	ownerID, _ := uuid.Parse(claims.UserID)
	handle := mux.Vars(r)["handle"]

	var req ForwardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ForwardingURL != "" {
		u, err := url.Parse(req.ForwardingURL)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			http.Error(w, "Forwarding URL must be an absolute http(s) URL", http.StatusBadRequest)
			return
		}
	}

	if err := h.registry.SetForwarding(r.Context(), handle, ownerID, req.ForwardingURL); err != nil {
		h.writeRegistryError(w, err)
		return
	}

	audit.Log(audit.EventForwardingUpdated, claims.UserID, handle, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Forwarding updated"})
}

type StatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus flips a handle between active and suspended. Owner only.
func (h *SubdomainsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value("claims").(*auth.Claims)
	ownerID, _ := uuid.Parse(claims.UserID)
	handle := mux.Vars(r)["handle"]

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Status != registry.StatusActive && req.Status != registry.StatusSuspended {
		http.Error(w, "Status must be 'active' or 'suspended'", http.StatusBadRequest)
		return
	}

	if err := h.registry.UpdateStatus(r.Context(), handle, ownerID, req.Status); err != nil {
		h.writeRegistryError(w, err)
		return
	}

	audit.Log(audit.EventStatusUpdated, claims.UserID, handle, map[string]interface{}{"status": req.Status})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Status updated"})
}

func (h *SubdomainsHandler) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		http.Error(w, "Subdomain not found", http.StatusNotFound)
	case errors.Is(err, registry.ErrNotOwner):
		http.Error(w, "You do not own this subdomain", http.StatusForbidden)
	default:
		log.Printf("Registry error: %v", err)
		http.Error(w, "Registry operation failed", http.StatusInternalServerError)
	}
}
