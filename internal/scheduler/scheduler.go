package scheduler

import (
	"context"
	"log"
	"strings"
	"time"

	"subdomtop/internal/dns"
	"subdomtop/internal/registry"
)

// Scheduler runs the periodic DNS reconcile sweep: every claimed handle keeps
// its edge CNAME, and edge CNAMEs without a registry entry (leftovers from
// failed claims) are removed.
type Scheduler struct {
	registry     registry.Registry
	gateway      dns.Gateway
	parentDomain string
	edgeTarget   string
	interval     time.Duration
	stop         chan struct{}
}

func New(reg registry.Registry, gateway dns.Gateway, parentDomain, edgeTarget string, intervalHours int) *Scheduler {
	if intervalHours < 1 {
		intervalHours = 1
	}
	return &Scheduler{
		registry:     reg,
		gateway:      gateway,
		parentDomain: parentDomain,
		edgeTarget:   edgeTarget,
		interval:     time.Duration(intervalHours) * time.Hour,
		stop:         make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) run() {
	// Run immediately on start
	s.Reconcile()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Reconcile()
		case <-s.stop:
			return
		}
	}
}

// Reconcile compares the zone's edge CNAMEs against the registry. Failures
// are logged and retried on the next tick.
func (s *Scheduler) Reconcile() {
	log.Println("Running DNS reconcile sweep...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	records, err := s.gateway.ListZoneRecords(ctx)
	if err != nil {
		log.Printf("Reconcile: failed to list zone records: %v", err)
		return
	}

	subs, err := s.registry.ListAll(ctx)
	if err != nil {
		log.Printf("Reconcile: failed to list registry: %v", err)
		return
	}

	claimed := make(map[string]bool, len(subs))
	for _, sub := range subs {
		claimed[sub.Handle+"."+s.parentDomain] = true
	}

	covered := make(map[string]bool)
	orphans := 0
	for _, rec := range records {
		if rec.Type != "CNAME" || rec.Content != s.edgeTarget {
			continue
		}
		if rec.Name == s.parentDomain || !strings.HasSuffix(rec.Name, "."+s.parentDomain) {
			continue
		}
		if claimed[rec.Name] {
			covered[rec.Name] = true
			continue
		}
		// Edge CNAME without a registry entry: a claim that created its
		// record but never committed.
		if err := s.gateway.DeleteRecord(ctx, rec.ID); err != nil {
			log.Printf("Reconcile: failed to delete orphaned record %s (%s): %v", rec.Name, rec.ID, err)
			continue
		}
		orphans++
	}

	created := 0
	for _, sub := range subs {
		if sub.Status != registry.StatusActive {
			continue
		}
		hostname := sub.Handle + "." + s.parentDomain
		if covered[hostname] {
			continue
		}
		_, err := s.gateway.CreateRecord(ctx, dns.Record{
			Type:    "CNAME",
			Name:    hostname,
			Content: s.edgeTarget,
			TTL:     1,
			Proxied: true,
		})
		if err != nil {
			log.Printf("Reconcile: failed to recreate record for %s: %v", hostname, err)
			continue
		}
		created++
	}

	if orphans > 0 || created > 0 {
		log.Printf("Reconcile sweep done: %d orphans removed, %d records recreated", orphans, created)
	}
}
