// Package correlation implements the time-of-day/seasonal factor
// curves and the cross-metric correlation table that the value
// simulator consults when deriving gauge and counter values.
package correlation

import (
	"math"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
)

// DailyFactor returns a multiplier in [0.3, 1.6] following a trough
// near 03:00, a business-hours plateau near 1.0, an evening peak near
// 1.4, and a late-evening tail near 0.7.
func DailyFactor(now time.Time) float64 {
	h := float64(now.Hour()) + float64(now.Minute())/60.0
	// (hour, factor) anchors, linearly interpolated. The last anchor
	// repeats the first so the curve is continuous across midnight.
	curve := [][2]float64{{0, 0.6}, {3, 0.3}, {6, 0.5}, {9, 1.0}, {17, 1.0}, {20, 1.4}, {22, 0.7}, {24, 0.6}}
	for i := 1; i < len(curve); i++ {
		lo, hi := curve[i-1], curve[i]
		if h <= hi[0] {
			t := (h - lo[0]) / (hi[0] - lo[0])
			return clamp(lo[1]+t*(hi[1]-lo[1]), 0.3, 1.6)
		}
	}
	return curve[0][1]
}

// WeeklyFactor returns a multiplier around 1.0: a slight weekend dip
// for enterprise devices (fewer office workers online) and a slight
// weekend rise for residential devices (more people home).
func WeeklyFactor(now time.Time, class simcontext.Class) float64 {
	weekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday
	if !weekend {
		return 1.0
	}
	if class == simcontext.ClassEnterprise {
		return 0.85
	}
	return 1.1
}

// SeasonalTemperatureOffset returns an offset in [-15, 15] degrees by
// day-of-year, peaking in mid-summer (day ~200) and troughing in
// mid-winter.
func SeasonalTemperatureOffset(now time.Time) float64 {
	day := float64(now.YearDay())
	return 15 * math.Sin(2*math.Pi*(day-100)/365)
}

// WeatherVariation returns a multiplier in [0.7, 1.15], mostly
// clustered near 1.0, derived from the current time bucket and a
// per-device seed so that two devices do not share identical weather.
func WeatherVariation(now time.Time, deviceSeed int64) float64 {
	bucket := now.Unix() / 1800 // 30-minute buckets
	r := pseudoUnit(deviceSeed ^ bucket)
	// Triangular distribution over [0.7, 1.15] with its mode at 1.0.
	const lo, mode, hi = 0.7, 1.0, 1.15
	if r < (mode-lo)/(hi-lo) {
		return lo + math.Sqrt(r*(hi-lo)*(mode-lo))
	}
	return hi - math.Sqrt((1-r)*(hi-lo)*(hi-mode))
}

// pseudoUnit maps an int64 to a pseudo-random float64 in [0, 1) with a
// cheap integer mix, avoiding the overhead of constructing a full
// math/rand source for a single draw.
func pseudoUnit(x int64) float64 {
	u := uint64(x)
	u ^= u >> 33
	u *= 0xff51afd7ed558ccd
	u ^= u >> 33
	u *= 0xc4ceb9fe1a85ec53
	u ^= u >> 33
	return float64(u%1_000_000) / 1_000_000.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rule is one row of the cross-metric correlation table: when source
// is reported with a new value, target is nudged by sensitivity times
// that new value, plus noise, then clamped to [lo, hi].
type Rule struct {
	Source      string
	Target      string
	Sensitivity float64 // target change per unit of the source's reported value, signed
	NoisePct    float64 // +/- fraction of the nudge added as noise
	ClampLow    float64
	ClampHigh   float64
}

// defaultRules implements the three example correlations named in the
// requirements: temperature up -> signal quality down, CPU usage up ->
// power consumption up, interface utilization up -> error rate up.
// Magnitudes are not specified precisely anywhere upstream, so they are
// chosen here and documented rather than guessed silently.
var defaultRules = []Rule{
	{Source: "temperature", Target: "signal_quality", Sensitivity: -0.6, NoisePct: 0.05, ClampLow: 0, ClampHigh: 100},
	{Source: "cpu_usage", Target: "power_consumption", Sensitivity: 0.4, NoisePct: 0.08, ClampLow: 0, ClampHigh: 100},
	{Source: "interface_utilization", Target: "error_rate", Sensitivity: 0.3, NoisePct: 0.1, ClampLow: 0, ClampHigh: 100},
}

// Rules returns the active correlation table. Exported as a slice copy
// so callers cannot mutate the package default.
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Apply applies every rule whose Source matches changedMetric, nudging
// each rule's Target in ctx's correlated-metric map and clamping the
// result to the rule's range. rng supplies the rule's noise draw.
func Apply(ctx *simcontext.Context, changedMetric string, newValue float64, rng interface{ Float64() float64 }) {
	for _, r := range defaultRules {
		if r.Source != changedMetric {
			continue
		}
		nudge := r.Sensitivity * newValue
		noise := (rng.Float64()*2 - 1) * r.NoisePct * nudge
		current, _ := ctx.Metric(r.Target)
		updated := clamp(current+nudge+noise, r.ClampLow, r.ClampHigh)
		ctx.SetMetric(r.Target, updated)
	}
}
