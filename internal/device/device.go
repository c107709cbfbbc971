// Package device implements the Device Agent: per-device state plus
// the get/get_next/get_bulk_slice/info/reboot operations the request
// pipeline drives.
package device

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
	"github.com/debashish-mukherjee/go-snmpsim/internal/valuesim"
)

// Info summarizes an agent for administrative callers.
type Info struct {
	DeviceType string
	Port       int
	Uptime     time.Duration
	OIDCount   int
	Community  string
}

// Agent owns one simulated device's state. Requests for a port reach
// it one at a time because the UDP listener runs a single receive loop
// per socket; the agent holds no lock across Get, GetNext or
// GetBulkSlice. The mutex protects lastAccess and the boot-instant read
// in GetInfo, which the idle sweep and administrative calls also touch.
type Agent struct {
	DeviceID   string
	DeviceType string
	Port       int
	Community  string

	store *mibstore.Store
	ctx   *simcontext.Context

	mu         sync.Mutex
	lastAccess time.Time
	inFlight   atomic.Int32
}

// New constructs an Agent freshly booted at now.
func New(deviceID, deviceType string, port int, community string, store *mibstore.Store, class simcontext.Class, now time.Time) *Agent {
	return &Agent{
		DeviceID:   deviceID,
		DeviceType: deviceType,
		Port:       port,
		Community:  community,
		store:      store,
		ctx:        simcontext.New(deviceID, class, now),
		lastAccess: now,
	}
}

// PresetUptime moves boot_instant into the past so a freshly created
// device reports a plausible uptime for its type instead of starting
// at zero. Must be called before the agent serves its first request.
func (a *Agent) PresetUptime(bias time.Duration) {
	if bias > 0 {
		a.ctx.BootInstant = a.ctx.BootInstant.Add(-bias)
	}
}

// touch records an access and marks a request in flight; the returned
// func must be deferred to mark it complete. now is injected so tests
// can pin the clock.
func (a *Agent) touch(now time.Time) func() {
	a.mu.Lock()
	a.lastAccess = now
	a.mu.Unlock()
	a.inFlight.Add(1)
	return func() { a.inFlight.Add(-1) }
}

// LastAccess returns the instant of the most recent request, for idle
// sweep comparisons.
func (a *Agent) LastAccess() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAccess
}

// Busy reports whether a request is currently in flight; the pool must
// not evict a busy agent.
func (a *Agent) Busy() bool {
	return a.inFlight.Load() > 0
}

func (a *Agent) simulate(e mibstore.Entry, now time.Time) snmpval.Value {
	return valuesim.Simulate(e, a.ctx, e.OID, now)
}

// Get performs an exact lookup. A miss yields NoSuchObject; the
// pipeline converts that into a v1 error-status response when needed.
func (a *Agent) Get(oidStr string, now time.Time) snmpval.Varbind {
	defer a.touch(now)()
	o, err := oid.Parse(oidStr)
	if err != nil {
		return snmpval.Varbind{OID: oidStr, Value: snmpval.NoSuchObject()}
	}
	e, ok := a.store.Get(a.DeviceType, o)
	if !ok {
		return snmpval.Varbind{OID: oidStr, Value: snmpval.NoSuchObject()}
	}
	return snmpval.Varbind{OID: e.OID, Value: a.simulate(e, now)}
}

// GetNext returns the lexicographically next entry after oidStr, or
// EndOfMibView if none remains.
func (a *Agent) GetNext(oidStr string, now time.Time) snmpval.Varbind {
	defer a.touch(now)()
	o, err := oid.Parse(oidStr)
	if err != nil {
		return snmpval.Varbind{OID: oidStr, Value: snmpval.EndOfMibView()}
	}
	e, ok := a.store.GetNext(a.DeviceType, o)
	if !ok {
		return snmpval.Varbind{OID: oidStr, Value: snmpval.EndOfMibView()}
	}
	return snmpval.Varbind{OID: e.OID, Value: a.simulate(e, now)}
}

// GetBulkSlice returns up to maxReps varbinds strictly after startOid.
func (a *Agent) GetBulkSlice(startOid string, maxReps int, now time.Time) []snmpval.Varbind {
	defer a.touch(now)()
	o, err := oid.Parse(startOid)
	if err != nil {
		return nil
	}
	entries := a.store.GetBulk(a.DeviceType, o, maxReps)
	out := make([]snmpval.Varbind, len(entries))
	for i, e := range entries {
		out[i] = snmpval.Varbind{OID: e.OID, Value: a.simulate(e, now)}
	}
	return out
}

// GetInfo reports device metadata for administrative callers.
func (a *Agent) GetInfo(now time.Time) Info {
	a.mu.Lock()
	boot := a.ctx.BootInstant
	a.mu.Unlock()
	return Info{
		DeviceType: a.DeviceType,
		Port:       a.Port,
		Uptime:     now.Sub(boot),
		OIDCount:   a.store.Count(a.DeviceType),
		Community:  a.Community,
	}
}

// Reboot resets boot_instant and clears counters/correlated state.
func (a *Agent) Reboot(now time.Time) {
	a.mu.Lock()
	a.lastAccess = now
	a.mu.Unlock()
	a.ctx.Reboot(now)
}
