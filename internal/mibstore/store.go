// Package mibstore holds, per device-type tag, an immutable sorted
// array of MIB entries and serves get/get_next/get_bulk lookups
// against it.
//
// The store is read-only after load: an atomic.Pointer swap publishes
// a freshly built profile, so concurrent readers never see a lock and
// never observe a torn update.
package mibstore

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"

	radix "github.com/armon/go-radix"
	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
	"github.com/robfig/cron/v3"
)

// ErrProfileNotLoaded names a lookup against a device type with no
// loaded profile. Get, GetNext and GetBulk do not return it; they
// report that case as a miss (false or an empty result).
var ErrProfileNotLoaded = errors.New("mibstore: profile not loaded")

// ErrInvalidEntry is returned by Load when a record's type and value
// are inconsistent (e.g. Counter32 carrying a negative value).
var ErrInvalidEntry = errors.New("mibstore: invalid entry")

type profile struct {
	entries []Entry   // sorted ascending by OID
	index   *radix.Tree
}

// Store holds one immutable profile per device-type tag.
type Store struct {
	mu        sync.Mutex // guards the profiles map and cron registrations; not the hot read path
	profiles  map[string]*atomic.Pointer[profile]
	cron      *cron.Cron
	cronStart bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		profiles: make(map[string]*atomic.Pointer[profile]),
	}
}

// Load sorts and deduplicates entries (later entries shadow earlier
// ones with the same OID) and atomically publishes them as the
// profile for device type dt. Entries whose base type and base value
// variant disagree, or whose OID does not parse, are rejected.
func (s *Store) Load(dt string, entries []Entry) error {
	cleaned, err := validateAndDedupe(entries)
	if err != nil {
		return err
	}
	p := buildProfile(cleaned)
	s.pointerFor(dt).Store(p)
	log.Printf("mibstore: loaded profile device_type=%s entries=%d", dt, len(cleaned))
	return nil
}

func (s *Store) pointerFor(dt string) *atomic.Pointer[profile] {
	s.mu.Lock()
	defer s.mu.Unlock()
	ptr, ok := s.profiles[dt]
	if !ok {
		ptr = &atomic.Pointer[profile]{}
		s.profiles[dt] = ptr
	}
	return ptr
}

func validateAndDedupe(entries []Entry) ([]Entry, error) {
	byOID := make(map[string]Entry, len(entries))
	for _, e := range entries {
		parsed, err := oid.Parse(e.OID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, e.OID, err)
		}
		if !typeValueConsistent(e.BaseType, e.BaseValue) {
			return nil, fmt.Errorf("%w: %s: type/value mismatch", ErrInvalidEntry, e.OID)
		}
		e.OID = parsed.String() // canonicalize representation
		byOID[e.OID] = e        // later entries shadow earlier ones
	}
	out := make([]Entry, 0, len(byOID))
	for _, e := range byOID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return oid.Less(oid.MustParse(out[i].OID), oid.MustParse(out[j].OID))
	})
	return out, nil
}

func typeValueConsistent(t snmpval.Kind, v snmpval.Value) bool {
	if t != v.Kind {
		return false
	}
	switch t {
	case snmpval.KindCounter32, snmpval.KindGauge32, snmpval.KindTimeTicks:
		return true // unsigned representation already excludes negative values
	default:
		return true
	}
}

func buildProfile(entries []Entry) *profile {
	tree := radix.New()
	for i, e := range entries {
		tree.Insert(e.OID, i)
	}
	return &profile{entries: entries, index: tree}
}

func (s *Store) load(dt string) (*profile, bool) {
	s.mu.Lock()
	ptr, ok := s.profiles[dt]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	p := ptr.Load()
	return p, p != nil
}

// Get performs an exact lookup. The second return value is false if
// the device type has no loaded profile or the OID is absent.
func (s *Store) Get(dt string, o oid.OID) (Entry, bool) {
	p, ok := s.load(dt)
	if !ok {
		return Entry{}, false
	}
	if idx, found := p.index.Get(o.String()); found {
		return p.entries[idx.(int)], true
	}
	return Entry{}, false
}

// GetNext returns the first entry strictly greater than o in
// lexicographic order. It never returns o itself.
func (s *Store) GetNext(dt string, o oid.OID) (Entry, bool) {
	p, ok := s.load(dt)
	if !ok {
		return Entry{}, false
	}
	i := sort.Search(len(p.entries), func(i int) bool {
		return oid.Less(o, oid.MustParse(p.entries[i].OID))
	})
	if i >= len(p.entries) {
		return Entry{}, false
	}
	return p.entries[i], true
}

// GetBulk returns up to maxRepetitions entries strictly greater than
// start, in ascending order. start never appears in the result.
func (s *Store) GetBulk(dt string, start oid.OID, maxRepetitions int) []Entry {
	if maxRepetitions <= 0 {
		return nil
	}
	p, ok := s.load(dt)
	if !ok {
		return nil
	}
	i := sort.Search(len(p.entries), func(i int) bool {
		return oid.Less(start, oid.MustParse(p.entries[i].OID))
	})
	end := i + maxRepetitions
	if end > len(p.entries) {
		end = len(p.entries)
	}
	if i >= end {
		return nil
	}
	out := make([]Entry, end-i)
	copy(out, p.entries[i:end])
	return out
}

// Count returns the number of entries in dt's loaded profile, or 0 if
// none is loaded.
func (s *Store) Count(dt string) int {
	p, ok := s.load(dt)
	if !ok {
		return 0
	}
	return len(p.entries)
}

// ScheduleReload registers a cron job that reloads dt's profile from
// builder on the given schedule, swapping the profile pointer
// atomically on success. A failed build is logged and leaves the
// current profile in place.
func (s *Store) ScheduleReload(dt, cronSpec string, builder func() ([]Entry, error)) error {
	s.mu.Lock()
	if s.cron == nil {
		s.cron = cron.New()
	}
	c := s.cron
	s.mu.Unlock()

	_, err := c.AddFunc(cronSpec, func() {
		entries, err := builder()
		if err != nil {
			log.Printf("mibstore: scheduled reload failed device_type=%s: %v", dt, err)
			return
		}
		if err := s.Load(dt, entries); err != nil {
			log.Printf("mibstore: scheduled reload rejected device_type=%s: %v", dt, err)
		}
	})
	if err != nil {
		return fmt.Errorf("mibstore: schedule reload: %w", err)
	}

	s.mu.Lock()
	if !s.cronStart {
		s.cron.Start()
		s.cronStart = true
	}
	s.mu.Unlock()
	return nil
}

// StopScheduledReloads stops the cron scheduler, if one was started.
func (s *Store) StopScheduledReloads() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}
