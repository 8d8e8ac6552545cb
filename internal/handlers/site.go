package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"subdomtop/internal/registry"
)

// SiteHandler renders public tenant page data: a registry read followed by an
// owner profile read, every view, no caching.
type SiteHandler struct {
	registry registry.Registry
	users    registry.Users
}

func NewSiteHandler(reg registry.Registry, users registry.Users) *SiteHandler {
	return &SiteHandler{registry: reg, users: users}
}

type SitePage struct {
	Handle        string     `json:"handle"`
	Status        string     `json:"status"`
	ForwardingURL string     `json:"forwarding_url,omitempty"`
	DisplayName   string     `json:"display_name"`
	Bio           string     `json:"bio,omitempty"`
	MemberSince   *time.Time `json:"member_since,omitempty"`
}

// GetSite resolves the tenant page for the handle in the `site` parameter.
// The lookup is an exact key match; a miss is the terminal unresolved state.
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("site")
	if handle == "" {
		http.Error(w, "Missing site parameter", http.StatusBadRequest)
		return
	}

	sub, err := h.registry.GetByHandle(r.Context(), handle)
	if errors.Is(err, registry.ErrNotFound) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "unresolved"})
		return
	}
	if err != nil {
		log.Printf("Site resolution error for %s: %v", handle, err)
		http.Error(w, "Failed to resolve site", http.StatusInternalServerError)
		return
	}

	page := SitePage{
		Handle:        sub.Handle,
		Status:        sub.Status,
		ForwardingURL: sub.ForwardingURL,
		// Fall back to the handle when the owner profile is missing
		DisplayName: sub.Handle,
	}

	owner, err := h.users.GetByID(r.Context(), sub.OwnerID)
	if err != nil {
		log.Printf("Owner profile lookup failed for %s: %v", handle, err)
	} else {
		if owner.DisplayName != "" {
			page.DisplayName = owner.DisplayName
		}
		page.Bio = owner.Bio
		page.MemberSince = &owner.CreatedAt
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

// ServeRoot handles "/" after the tenant resolver ran: tenant-host requests
// arrive with the site parameter set, everything else is the root site.
func (h *SiteHandler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("site") != "" {
		h.GetSite(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"service": "subdomtop"})
}
