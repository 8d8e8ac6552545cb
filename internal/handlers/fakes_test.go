package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"subdomtop/internal/dns"
	"subdomtop/internal/models"
	"subdomtop/internal/registry"
)

// fakeRegistry is an in-memory handle registry for handler tests.
type fakeRegistry struct {
	subs     map[string]*models.Subdomain
	claimErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{subs: make(map[string]*models.Subdomain)}
}

func (f *fakeRegistry) CheckAvailable(_ context.Context, handle string) (bool, error) {
	_, exists := f.subs[handle]
	return !exists, nil
}

func (f *fakeRegistry) Claim(_ context.Context, handle string, ownerID uuid.UUID) (*models.Subdomain, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if _, exists := f.subs[handle]; exists {
		return nil, registry.ErrAlreadyClaimed
	}
	sub := &models.Subdomain{
		Handle:    handle,
		OwnerID:   ownerID,
		Status:    registry.StatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.subs[handle] = sub
	return sub, nil
}

func (f *fakeRegistry) GetByHandle(_ context.Context, handle string) (*models.Subdomain, error) {
	sub, exists := f.subs[handle]
	if !exists {
		return nil, registry.ErrNotFound
	}
	return sub, nil
}

func (f *fakeRegistry) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Subdomain, error) {
	var out []models.Subdomain
	for _, sub := range f.subs {
		if sub.OwnerID == ownerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeRegistry) ListAll(_ context.Context) ([]models.Subdomain, error) {
	var out []models.Subdomain
	for _, sub := range f.subs {
		out = append(out, *sub)
	}
	return out, nil
}

func (f *fakeRegistry) SetForwarding(_ context.Context, handle string, ownerID uuid.UUID, url string) error {
	sub, exists := f.subs[handle]
	if !exists {
		return registry.ErrNotFound
	}
	if sub.OwnerID != ownerID {
		return registry.ErrNotOwner
	}
	sub.ForwardingURL = url
	return nil
}

func (f *fakeRegistry) UpdateStatus(_ context.Context, handle string, ownerID uuid.UUID, status string) error {
	sub, exists := f.subs[handle]
	if !exists {
		return registry.ErrNotFound
	}
	if sub.OwnerID != ownerID {
		return registry.ErrNotOwner
	}
	sub.Status = status
	return nil
}

// fakeGateway records provider calls instead of making them.
type fakeGateway struct {
	records   map[string]dns.Record
	nextID    int
	createErr error
	creates   []dns.Record
	deletes   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{records: make(map[string]dns.Record)}
}

func (f *fakeGateway) VerifyToken(context.Context) error { return nil }

func (f *fakeGateway) ListRecords(_ context.Context, hostname string) ([]dns.Record, error) {
	var out []dns.Record
	for _, rec := range f.records {
		if rec.Name == hostname {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeGateway) ListZoneRecords(context.Context) ([]dns.Record, error) {
	var out []dns.Record
	for _, rec := range f.records {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeGateway) CreateRecord(_ context.Context, record dns.Record) (*dns.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	record.ID = fmt.Sprintf("rec%d", f.nextID)
	f.records[record.ID] = record
	f.creates = append(f.creates, record)
	return &record, nil
}

func (f *fakeGateway) DeleteRecord(_ context.Context, recordID string) error {
	delete(f.records, recordID)
	f.deletes = append(f.deletes, recordID)
	return nil
}

// fakeUsers resolves owner profiles from a map.
type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, exists := f.users[id]
	if !exists {
		return nil, registry.ErrNotFound
	}
	return user, nil
}
