// Package valuesim derives the live value placed in a response varbind
// from a MIB entry's base type/value, its behavior tag, the owning
// device's simulation context, and the current wall clock.
//
// Counter values are computed from (entry, context, now) as base plus
// rate times elapsed time since boot, never accumulated in a running
// counter, so restarts and missed polls do not desync them. Simulating
// utilization, signal and CPU entries also records correlated metrics
// in the context; error counters and the CPU gauge read those metrics,
// so their values depend on which entries were simulated before them.
package valuesim

import (
	"math"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/correlation"
	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

const counter32Mod = uint64(1) << 32

// Simulate returns the value to place in a response varbind for entry,
// given the owning device's context and the request-time clock.
func Simulate(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	switch entry.Behavior.Kind {
	case mibstore.Static:
		return entry.BaseValue
	case mibstore.UptimeTicks:
		return uptimeTicks(ctx, now)
	case mibstore.TrafficCounter:
		return trafficCounter(entry, ctx, oidStr, now)
	case mibstore.UtilizationGauge:
		return utilizationGauge(entry, ctx, oidStr, now)
	case mibstore.SignalGauge:
		return signalGauge(entry, ctx, oidStr, now)
	case mibstore.ErrorCounter:
		return errorCounter(entry, ctx, oidStr, now)
	case mibstore.CpuGauge:
		return cpuGauge(entry, ctx, oidStr, now)
	case mibstore.StatusEnum:
		return statusEnum(entry, ctx, oidStr, now)
	default:
		return entry.BaseValue
	}
}

func uptimeTicks(ctx *simcontext.Context, now time.Time) snmpval.Value {
	elapsed := now.Sub(ctx.BootInstant)
	if elapsed < 0 {
		elapsed = 0
	}
	ticks := uint64(elapsed / (10 * time.Millisecond))
	return snmpval.TimeTicks(uint32(ticks % counter32Mod))
}

func baseUint(v snmpval.Value) uint64 {
	switch v.Kind {
	case snmpval.KindCounter32, snmpval.KindGauge32, snmpval.KindTimeTicks:
		return uint64(v.UInt32)
	case snmpval.KindCounter64:
		return v.UInt64
	default:
		return 0
	}
}

func sampleRate(lo, hi float64, variance mibstore.VarianceKind, sigma float64, rng interface {
	Float64() float64
	NormFloat64() float64
}) float64 {
	mid := (lo + hi) / 2
	span := (hi - lo) / 2
	switch variance {
	case mibstore.VarianceGaussian:
		s := sigma
		if s <= 0 {
			s = span / 3
		}
		v := mid + rng.NormFloat64()*s
		return clampF(v, lo, hi)
	case mibstore.VarianceDeviceSpecific:
		// A device-specific offset within the range, stable across
		// calls for the same device because rng is seeded from
		// (device_id, oid).
		offset := (rng.Float64()*2 - 1) * span
		return clampF(mid+offset, lo, hi)
	default: // VarianceUniform
		return lo + rng.Float64()*(hi-lo)
	}
}

func burstFactor(burstP float64, rng interface{ Float64() float64 }) float64 {
	if burstP <= 0 {
		return 1.0
	}
	if rng.Float64() < burstP {
		return 3.0 // a burst roughly triples the effective rate
	}
	return 1.0
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func trafficCounter(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	b := entry.Behavior
	rng := simcontext.RNG(ctx.DeviceID, oidStr)
	rate := sampleRate(b.RateLow, b.RateHigh, b.Variance, b.GaussianSigma, rng)
	effective := rate * correlation.DailyFactor(now) * correlation.WeeklyFactor(now, ctx.Class) * burstFactor(b.BurstP, rng)
	elapsed := now.Sub(ctx.BootInstant).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	delta := uint64(math.Max(0, elapsed*effective))
	base := baseUint(entry.BaseValue)
	correlation.Apply(ctx, "traffic_rate", effective, rng)
	if entry.BaseValue.Kind == snmpval.KindCounter64 {
		return snmpval.Counter64(base + delta) // wraps at 2^64 by uint64 arithmetic
	}
	value := (base + delta) % counter32Mod
	return snmpval.Counter32(uint32(value))
}

func utilizationGauge(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	b := entry.Behavior
	rng := simcontext.RNG(ctx.DeviceID, oidStr)
	center := (b.RangeLow + b.RangeHigh) / 2
	if bv := baseUintSigned(entry.BaseValue); bv != 0 {
		center = float64(bv)
	}
	jitter := 0.9 + rng.Float64()*0.2
	value := clampF(center*correlation.DailyFactor(now)*correlation.WeeklyFactor(now, ctx.Class)*jitter, b.RangeLow, b.RangeHigh)
	ctx.SetMetric("interface_utilization", value)
	correlation.Apply(ctx, "interface_utilization", value, rng)
	return snmpval.Gauge32(uint32(math.Round(value)))
}

func baseUintSigned(v snmpval.Value) int64 {
	switch v.Kind {
	case snmpval.KindInteger32:
		return int64(v.Int)
	case snmpval.KindGauge32:
		return int64(v.UInt32)
	default:
		return 0
	}
}

func signalGauge(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	b := entry.Behavior
	rng := simcontext.RNG(ctx.DeviceID, oidStr)
	center := (b.RangeLow + b.RangeHigh) / 2
	if bv := baseUintSigned(entry.BaseValue); bv != 0 {
		center = float64(bv)
	}
	weather := 1.0
	if b.WeatherSensitive {
		weather = correlation.WeatherVariation(now, simcontext.Seed(ctx.DeviceID, oidStr))
	}
	value := clampF(center*weather*(0.95+rng.Float64()*0.1), b.RangeLow, b.RangeHigh)
	// signal_quality is kept on a 0..100 scale (position within the
	// gauge's range), the scale errorCounter and the correlation table use.
	quality := 0.0
	if b.RangeHigh > b.RangeLow {
		quality = 100 * (value - b.RangeLow) / (b.RangeHigh - b.RangeLow)
	}
	ctx.SetMetric("signal_quality", quality)
	return snmpval.Gauge32(uint32(math.Round(value)))
}

func errorCounter(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	b := entry.Behavior
	rng := simcontext.RNG(ctx.DeviceID, oidStr)
	rate := sampleRate(b.RateLow, b.RateHigh, b.Variance, b.GaussianSigma, rng)

	scale := 1.0
	if util, ok := ctx.Metric("interface_utilization"); ok {
		scale *= 1.0 + util/200.0 // higher utilization raises the error rate
	}
	if signal, ok := ctx.Metric("signal_quality"); ok {
		scale *= 1.0 + (100.0-signal)/200.0 // lower signal quality raises the error rate
	}

	effective := rate * scale
	elapsed := now.Sub(ctx.BootInstant).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	delta := uint64(math.Max(0, elapsed*effective))
	base := baseUint(entry.BaseValue)
	value := (base + delta) % counter32Mod
	return snmpval.Counter32(uint32(value))
}

func cpuGauge(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	rng := simcontext.RNG(ctx.DeviceID, oidStr)
	base := float64(baseUintSigned(entry.BaseValue))
	if base == 0 {
		base = 20
	}
	load := 0.0
	if util, ok := ctx.Metric("interface_utilization"); ok {
		load = util / 4 // a quarter of interface utilization bleeds into CPU load
	}
	value := clampF(base*correlation.DailyFactor(now)+load+rng.Float64()*5, 0, 100)
	ctx.SetMetric("cpu_usage", value)
	correlation.Apply(ctx, "cpu_usage", value, rng)
	return snmpval.Gauge32(uint32(math.Round(value)))
}

func statusEnum(entry mibstore.Entry, ctx *simcontext.Context, oidStr string, now time.Time) snmpval.Value {
	// Stationary distribution: overwhelmingly "up"; flips are rare and
	// resolved within the same wall-clock minute so repeated polls in
	// a short window agree.
	bucket := now.Truncate(time.Minute).Unix()
	rng := simcontext.RNGFromSeed(simcontext.Seed(ctx.DeviceID, oidStr) ^ bucket)
	if rng.Float64() < 0.01 {
		return snmpval.Int32(2) // down
	}
	if entry.BaseValue.Kind == snmpval.KindInteger32 && entry.BaseValue.Int != 0 {
		return entry.BaseValue
	}
	return snmpval.Int32(1) // up, also for an unset (zero) base value
}
