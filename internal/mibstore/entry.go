package mibstore

import "github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"

// BehaviorKind selects how a MIB entry's live value is derived.
type BehaviorKind int

const (
	Static BehaviorKind = iota
	UptimeTicks
	TrafficCounter
	UtilizationGauge
	SignalGauge
	ErrorCounter
	CpuGauge
	StatusEnum
)

// VarianceKind selects the noise distribution TrafficCounter and
// ErrorCounter sample from.
type VarianceKind int

const (
	VarianceUniform VarianceKind = iota
	VarianceGaussian
	VarianceDeviceSpecific
)

// Behavior carries the parameters for one BehaviorKind. Only the
// fields relevant to Kind are meaningful; the rest are zero.
type Behavior struct {
	Kind BehaviorKind

	// TrafficCounter / ErrorCounter
	RateLow, RateHigh float64
	Variance          VarianceKind
	GaussianSigma     float64
	BurstP            float64

	// UtilizationGauge / SignalGauge
	RangeLow, RangeHigh float64
	Pattern             string
	WeatherSensitive    bool
}

// Entry is one row of a Device Profile: a MIB object's canonical OID,
// its static base type/value, and the behavior that derives its live
// value at request time.
type Entry struct {
	OID       string // canonical dotted-decimal form, used as the sort/lookup key
	BaseType  snmpval.Kind
	BaseValue snmpval.Value
	Behavior  Behavior
}
