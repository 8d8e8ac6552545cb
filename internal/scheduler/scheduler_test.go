package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subdomtop/internal/dns"
	"subdomtop/internal/models"
	"subdomtop/internal/registry"
)

type stubRegistry struct {
	subs []models.Subdomain
}

func (s *stubRegistry) CheckAvailable(context.Context, string) (bool, error) { return false, nil }
func (s *stubRegistry) Claim(context.Context, string, uuid.UUID) (*models.Subdomain, error) {
	return nil, registry.ErrAlreadyClaimed
}
func (s *stubRegistry) GetByHandle(context.Context, string) (*models.Subdomain, error) {
	return nil, registry.ErrNotFound
}
func (s *stubRegistry) ListByOwner(context.Context, uuid.UUID) ([]models.Subdomain, error) {
	return nil, nil
}
func (s *stubRegistry) ListAll(context.Context) ([]models.Subdomain, error) { return s.subs, nil }
func (s *stubRegistry) SetForwarding(context.Context, string, uuid.UUID, string) error {
	return nil
}
func (s *stubRegistry) UpdateStatus(context.Context, string, uuid.UUID, string) error {
	return nil
}

type stubGateway struct {
	records map[string]dns.Record
	nextID  int
	creates []dns.Record
	deletes []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{records: make(map[string]dns.Record)}
}

func (g *stubGateway) VerifyToken(context.Context) error { return nil }
func (g *stubGateway) ListRecords(_ context.Context, hostname string) ([]dns.Record, error) {
	var out []dns.Record
	for _, rec := range g.records {
		if rec.Name == hostname {
			out = append(out, rec)
		}
	}
	return out, nil
}
func (g *stubGateway) ListZoneRecords(context.Context) ([]dns.Record, error) {
	var out []dns.Record
	for _, rec := range g.records {
		out = append(out, rec)
	}
	return out, nil
}
func (g *stubGateway) CreateRecord(_ context.Context, record dns.Record) (*dns.Record, error) {
	g.nextID++
	record.ID = fmt.Sprintf("rec%d", g.nextID)
	g.records[record.ID] = record
	g.creates = append(g.creates, record)
	return &record, nil
}
func (g *stubGateway) DeleteRecord(_ context.Context, recordID string) error {
	delete(g.records, recordID)
	g.deletes = append(g.deletes, recordID)
	return nil
}

const (
	parent = "tnxbd.top"
	edge   = "cname.vercel-dns.com"
)

func edgeCNAME(hostname string) dns.Record {
	return dns.Record{Type: "CNAME", Name: hostname, Content: edge, TTL: 1, Proxied: true}
}

func TestReconcileDeletesOrphans(t *testing.T) {
	reg := &stubRegistry{subs: []models.Subdomain{
		{Handle: "kept", Status: registry.StatusActive},
	}}
	gw := newStubGateway()
	gw.CreateRecord(context.Background(), edgeCNAME("kept.tnxbd.top"))
	orphan, err := gw.CreateRecord(context.Background(), edgeCNAME("ghost.tnxbd.top"))
	require.NoError(t, err)
	gw.creates = nil

	s := New(reg, gw, parent, edge, 1)
	s.Reconcile()

	assert.Equal(t, []string{orphan.ID}, gw.deletes)
	assert.Empty(t, gw.creates)
}

func TestReconcileRecreatesMissing(t *testing.T) {
	reg := &stubRegistry{subs: []models.Subdomain{
		{Handle: "acme", Status: registry.StatusActive},
		{Handle: "paused", Status: registry.StatusSuspended},
	}}
	gw := newStubGateway()

	s := New(reg, gw, parent, edge, 1)
	s.Reconcile()

	// Only the active handle gets its edge CNAME back
	require.Len(t, gw.creates, 1)
	assert.Equal(t, "acme.tnxbd.top", gw.creates[0].Name)
	assert.Equal(t, edge, gw.creates[0].Content)
	assert.True(t, gw.creates[0].Proxied)
}

func TestReconcileIgnoresUnrelatedRecords(t *testing.T) {
	reg := &stubRegistry{subs: []models.Subdomain{
		{Handle: "acme", Status: registry.StatusActive},
	}}
	gw := newStubGateway()
	gw.CreateRecord(context.Background(), edgeCNAME("acme.tnxbd.top"))
	// Owner-managed records are not claim CNAMEs and must survive
	gw.CreateRecord(context.Background(), dns.Record{Type: "TXT", Name: "acme.tnxbd.top", Content: "v=spf1 -all"})
	gw.CreateRecord(context.Background(), dns.Record{Type: "CNAME", Name: "acme.tnxbd.top", Content: "other.example.com"})
	gw.creates = nil

	s := New(reg, gw, parent, edge, 1)
	s.Reconcile()

	assert.Empty(t, gw.deletes)
	assert.Empty(t, gw.creates)
}
