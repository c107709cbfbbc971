package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

type fixedResolver struct {
	ranges map[int]string // port -> device type, for ports in [20000, 20010)
}

func (r fixedResolver) Resolve(port int) (string, error) {
	if dt, ok := r.ranges[port]; ok {
		return dt, nil
	}
	return "", errors.New("no range covers this port")
}

func newTestPool(t *testing.T, maxDevices int, idleTimeout time.Duration, clock func() time.Time) *Pool {
	t.Helper()
	store := mibstore.New()
	entries := []mibstore.Entry{
		{OID: "1.3.6.1.2.1.1.1.0", BaseType: snmpval.KindOctetString, BaseValue: snmpval.OctetString([]byte("cable modem"))},
	}
	if err := store.Load("cable_modem", entries); err != nil {
		t.Fatalf("Load: %v", err)
	}
	resolver := fixedResolver{ranges: map[int]string{20000: "cable_modem", 20001: "cable_modem", 20002: "cable_modem"}}
	return New(resolver, store, "public", maxDevices, idleTimeout, nil, clock)
}

func TestGetOrCreateThenReuse(t *testing.T) {
	p := newTestPool(t, 0, time.Hour, nil)
	a1, err := p.GetOrCreate(20000)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	a2, err := p.GetOrCreate(20000)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if a1 != a2 {
		t.Fatalf("expected the same agent instance on reuse")
	}
	if got := p.Stats().Created; got != 1 {
		t.Fatalf("Created = %d, want 1", got)
	}
}

func TestGetOrCreateUnknownPortRange(t *testing.T) {
	p := newTestPool(t, 0, time.Hour, nil)
	_, err := p.GetOrCreate(99999)
	if !errors.Is(err, ErrUnknownPortRange) {
		t.Fatalf("expected ErrUnknownPortRange, got %v", err)
	}
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	p := newTestPool(t, 2, time.Hour, nil)
	if _, err := p.GetOrCreate(20000); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := p.GetOrCreate(20001); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	// Touch 20000 again so 20001 becomes the LRU entry.
	if _, err := p.GetOrCreate(20000); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := p.GetOrCreate(20002); err != nil {
		t.Fatalf("GetOrCreate (should evict 20001): %v", err)
	}
	stats := p.Stats()
	if stats.Active != 2 {
		t.Fatalf("Active = %d, want 2", stats.Active)
	}
	if stats.CleanedUp != 1 {
		t.Fatalf("CleanedUp = %d, want 1", stats.CleanedUp)
	}
}

func TestShutdownRemovesAgent(t *testing.T) {
	p := newTestPool(t, 0, time.Hour, nil)
	if _, err := p.GetOrCreate(20000); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p.Shutdown(20000)
	if p.Stats().Active != 0 {
		t.Fatalf("expected 0 active devices after shutdown")
	}
}

func TestIdleSweepEvictsStaleAgents(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := newTestPool(t, 0, 1*time.Minute, clock)
	if _, err := p.GetOrCreate(20000); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	now = now.Add(2 * time.Minute)
	p.sweepOnce()
	if p.Stats().Active != 0 {
		t.Fatalf("expected idle agent to be swept after timeout")
	}
}

func TestCreatedDeviceUptimeBiasDeterministic(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := newTestPool(t, 0, time.Hour, clock)

	a, err := p.GetOrCreate(20000)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	first := a.GetInfo(now).Uptime
	if first < 0 || first >= 72*time.Hour {
		t.Fatalf("uptime bias = %v, want within [0, 72h) for a cable_modem", first)
	}

	p.Shutdown(20000)
	b, err := p.GetOrCreate(20000)
	if err != nil {
		t.Fatalf("GetOrCreate after shutdown: %v", err)
	}
	if again := b.GetInfo(now).Uptime; again != first {
		t.Fatalf("uptime bias not deterministic per device: %v then %v", first, again)
	}
}

func TestShutdownAllClearsRegistry(t *testing.T) {
	p := newTestPool(t, 0, time.Hour, nil)
	_, _ = p.GetOrCreate(20000)
	_, _ = p.GetOrCreate(20001)
	p.ShutdownAll()
	if p.Stats().Active != 0 {
		t.Fatalf("expected empty pool after ShutdownAll")
	}
}

func TestRunIdleSweepStopsOnContextCancel(t *testing.T) {
	p := newTestPool(t, 0, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.RunIdleSweep(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("RunIdleSweep did not return after context cancellation")
	}
}
