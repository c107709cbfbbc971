// Package simcontext defines the per-device inputs shared by the value
// simulator and the correlation engine, kept separate from the device
// agent package to avoid an import cycle between them.
package simcontext

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

// DeviceType characteristics referenced by value simulation and
// correlation (residential devices get a weekend traffic bump,
// enterprise devices a weekend dip).
type Class int

const (
	ClassResidential Class = iota
	ClassEnterprise
)

// Context is the read side of a Device State that the value simulator
// and correlation engine need: identity, boot time, a deterministic
// RNG keyed per OID, and the device's current correlated metrics.
type Context struct {
	DeviceID    string
	Class       Class
	BootInstant time.Time

	mu         sync.Mutex
	correlated map[string]float64
}

// New returns a Context for a freshly booted device.
func New(deviceID string, class Class, bootInstant time.Time) *Context {
	return &Context{
		DeviceID:    deviceID,
		Class:       class,
		BootInstant: bootInstant,
		correlated:  make(map[string]float64),
	}
}

// Reboot resets BootInstant, matching Device Agent reboot semantics
// (fresh uptime, cleared correlated state).
func (c *Context) Reboot(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BootInstant = now
	c.correlated = make(map[string]float64)
}

// Metric returns the named correlated metric, or (0, false) if unset.
func (c *Context) Metric(name string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.correlated[name]
	return v, ok
}

// SetMetric records the current value of a correlated metric.
func (c *Context) SetMetric(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.correlated[name] = value
}

// Seed derives a deterministic per-(device_id, oid) seed so value
// simulation is reproducible across calls and across test runs.
func Seed(deviceID, oid string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(deviceID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(oid))
	return int64(h.Sum64())
}

// RNG returns a new *rand.Rand seeded deterministically for
// (deviceID, oid). A fresh Rand is returned per call rather than
// shared, so callers can derive multiple independent draws without
// locking.
func RNG(deviceID, oid string) *rand.Rand {
	return rand.New(rand.NewSource(Seed(deviceID, oid)))
}

// RNGFromSeed returns a new *rand.Rand from an already-derived seed,
// for callers that mix Seed with additional entropy (e.g. a time
// bucket) before constructing the source.
func RNGFromSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
