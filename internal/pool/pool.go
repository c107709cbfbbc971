// Package pool implements the Lazy Device Pool: on-demand agent
// creation keyed by port, LRU idle eviction, bounded capacity, and
// periodic statistics.
package pool

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/device"
	"github.com/debashish-mukherjee/go-snmpsim/internal/metrics"
	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/profile"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
	"github.com/robfig/cron/v3"
)

// Administrative errors returned to callers of the pool API. These
// never reach an SNMP client.
var (
	ErrUnknownPortRange  = errors.New("pool: port is outside every declared range")
	ErrPoolAtCapacity    = errors.New("pool: at capacity and no idle agent to evict")
	ErrInvalidDeviceType = errors.New("pool: device type has no loaded profile")
)

// Resolver maps a port to the device type assigned to it.
type Resolver interface {
	Resolve(port int) (deviceType string, err error)
}

// Stats is the snapshot returned by Pool.Stats.
type Stats struct {
	Active    int
	Peak      int
	Created   int64
	CleanedUp int64
}

type entry struct {
	port  int
	agent *device.Agent
}

// Pool owns the port -> agent registry.
type Pool struct {
	mu       sync.Mutex
	agents   map[int]*list.Element // port -> LRU element wrapping *entry
	lru      *list.List            // front = most recently used

	resolver    Resolver
	store       *mibstore.Store
	community   string
	maxDevices  int
	idleTimeout time.Duration

	created   int64
	cleanedUp int64
	peak      int

	metrics *metrics.Metrics // nil-safe: all uses are guarded
	clock   func() time.Time

	cron        *cron.Cron
	cronStarted bool
}

// New constructs an empty Pool. m may be nil if metrics are not
// wired in the caller's configuration; clock defaults to time.Now if
// nil.
func New(resolver Resolver, store *mibstore.Store, community string, maxDevices int, idleTimeout time.Duration, m *metrics.Metrics, clock func() time.Time) *Pool {
	if clock == nil {
		clock = time.Now
	}
	return &Pool{
		agents:      make(map[int]*list.Element),
		lru:         list.New(),
		resolver:    resolver,
		store:       store,
		community:   community,
		maxDevices:  maxDevices,
		idleTimeout: idleTimeout,
		metrics:     m,
		clock:       clock,
	}
}

// GetOrCreate returns the agent bound to port, creating it on demand
// if this is the first access. If the pool is full, the
// least-recently-used idle agent is evicted first; if every agent is
// currently busy, ErrPoolAtCapacity is returned.
func (p *Pool) GetOrCreate(port int) (*device.Agent, error) {
	now := p.clock()

	p.mu.Lock()
	if el, ok := p.agents[port]; ok {
		p.lru.MoveToFront(el)
		a := el.Value.(*entry).agent
		p.mu.Unlock()
		return a, nil
	}

	if p.maxDevices > 0 && len(p.agents) >= p.maxDevices {
		if !p.evictOneLocked() {
			p.mu.Unlock()
			return nil, ErrPoolAtCapacity
		}
	}
	p.mu.Unlock()

	deviceType, err := p.resolver.Resolve(port)
	if err != nil {
		return nil, fmt.Errorf("%w: port %d: %v", ErrUnknownPortRange, port, err)
	}
	if p.store.Count(deviceType) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDeviceType, deviceType)
	}

	char := profile.For(deviceType)
	deviceID := fmt.Sprintf("%s-%d", deviceType, port)
	a := device.New(deviceID, deviceType, port, p.community, p.store, char.Class, now)
	a.PresetUptime(uptimeBias(deviceID, char.UptimeBiasHours))

	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.agents[port]; ok {
		// Lost the race with a concurrent creator for the same port;
		// keep the one already registered.
		p.lru.MoveToFront(el)
		return el.Value.(*entry).agent, nil
	}
	el := p.lru.PushFront(&entry{port: port, agent: a})
	p.agents[port] = el
	p.created++
	if len(p.agents) > p.peak {
		p.peak = len(p.agents)
	}
	if p.metrics != nil {
		p.metrics.DevicesCreated.Inc()
		p.metrics.DevicesActive.Set(float64(len(p.agents)))
		p.metrics.DevicesPeak.Set(float64(p.peak))
	}
	log.Printf("pool: created device port=%d type=%s", port, deviceType)
	return a, nil
}

// uptimeBias derives a deterministic per-device uptime in [0, biasHours)
// so a freshly created fleet does not report every device as booted at
// the same instant.
func uptimeBias(deviceID string, biasHours int) time.Duration {
	if biasHours <= 0 {
		return 0
	}
	frac := simcontext.RNGFromSeed(simcontext.Seed(deviceID, "uptime")).Float64()
	return time.Duration(frac * float64(biasHours) * float64(time.Hour))
}

// evictOneLocked removes the least-recently-used idle agent. Callers
// must hold p.mu. Returns false if every agent is currently busy.
func (p *Pool) evictOneLocked() bool {
	for el := p.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.agent.Busy() {
			continue
		}
		p.lru.Remove(el)
		delete(p.agents, e.port)
		p.cleanedUp++
		if p.metrics != nil {
			p.metrics.DevicesEvicted.Inc()
			p.metrics.DevicesActive.Set(float64(len(p.agents)))
		}
		return true
	}
	return false
}

// Shutdown terminates and removes the agent bound to port, if any.
func (p *Pool) Shutdown(port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.agents[port]
	if !ok {
		return
	}
	p.lru.Remove(el)
	delete(p.agents, port)
	p.cleanedUp++
	if p.metrics != nil {
		p.metrics.DevicesEvicted.Inc()
		p.metrics.DevicesActive.Set(float64(len(p.agents)))
	}
}

// ShutdownAll terminates every agent in the pool.
func (p *Pool) ShutdownAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.agents)
	p.agents = make(map[int]*list.Element)
	p.lru = list.New()
	p.cleanedUp += int64(n)
	if p.metrics != nil {
		p.metrics.DevicesActive.Set(0)
	}
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Active:    len(p.agents),
		Peak:      p.peak,
		Created:   p.created,
		CleanedUp: p.cleanedUp,
	}
}

// RunIdleSweep blocks, evicting agents idle longer than idleTimeout
// every interval, until ctx is done. An agent currently handling a
// request is never evicted; it is reconsidered on the next sweep.
func (p *Pool) RunIdleSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweepOnce()
		}
	}
}

func (p *Pool) sweepOnce() {
	now := p.clock()
	p.mu.Lock()
	var toEvict []int
	for el := p.lru.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry)
		if e.agent.Busy() {
			continue
		}
		if now.Sub(e.agent.LastAccess()) >= p.idleTimeout {
			toEvict = append(toEvict, e.port)
		}
	}
	p.mu.Unlock()
	for _, port := range toEvict {
		p.Shutdown(port)
		log.Printf("pool: evicted idle device port=%d", port)
	}
}

// ScheduleStatsSnapshot logs Stats() on a cron schedule, a lightweight
// heartbeat useful for long-running fleets without a metrics scraper
// attached.
func (p *Pool) ScheduleStatsSnapshot(cronSpec string) error {
	p.mu.Lock()
	if p.cron == nil {
		p.cron = cron.New()
	}
	c := p.cron
	p.mu.Unlock()

	_, err := c.AddFunc(cronSpec, func() {
		s := p.Stats()
		log.Printf("pool: stats active=%d peak=%d created=%d cleaned_up=%d", s.Active, s.Peak, s.Created, s.CleanedUp)
	})
	if err != nil {
		return fmt.Errorf("pool: schedule stats snapshot: %w", err)
	}

	p.mu.Lock()
	if !p.cronStarted {
		p.cron.Start()
		p.cronStarted = true
	}
	p.mu.Unlock()
	return nil
}

// StopScheduledSnapshots stops the cron scheduler, if one was started.
func (p *Pool) StopScheduledSnapshots() {
	p.mu.Lock()
	c := p.cron
	p.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
