package correlation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
)

func TestDailyFactorWithinRange(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		now := base.Add(time.Duration(h) * time.Hour)
		f := DailyFactor(now)
		if f < 0.3 || f > 1.6 {
			t.Fatalf("DailyFactor(%v) = %f, out of [0.3, 1.6]", now, f)
		}
	}
}

func TestWeeklyFactorWeekendDirection(t *testing.T) {
	saturday := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) // a Saturday
	if saturday.Weekday() != time.Saturday {
		t.Fatalf("fixture date is not a Saturday: %v", saturday.Weekday())
	}
	ent := WeeklyFactor(saturday, simcontext.ClassEnterprise)
	res := WeeklyFactor(saturday, simcontext.ClassResidential)
	if ent >= 1.0 {
		t.Fatalf("expected enterprise weekend dip, got %f", ent)
	}
	if res <= 1.0 {
		t.Fatalf("expected residential weekend rise, got %f", res)
	}
}

func TestSeasonalOffsetWithinRange(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 365; d += 10 {
		now := base.AddDate(0, 0, d)
		o := SeasonalTemperatureOffset(now)
		if o < -15 || o > 15 {
			t.Fatalf("SeasonalTemperatureOffset(%v) = %f, out of [-15, 15]", now, o)
		}
	}
}

func TestWeatherVariationWithinRange(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for seed := int64(0); seed < 50; seed++ {
		v := WeatherVariation(now, seed)
		if v < 0.7 || v > 1.15 {
			t.Fatalf("WeatherVariation seed=%d = %f, out of [0.7, 1.15]", seed, v)
		}
	}
}

func TestApplyCorrelationsNudgesTargetAndClamps(t *testing.T) {
	ctx := simcontext.New("dev-1", simcontext.ClassResidential, time.Now())
	rng := rand.New(rand.NewSource(1))
	Apply(ctx, "temperature", 1000, rng) // deliberately large to force clamping
	v, ok := ctx.Metric("signal_quality")
	if !ok {
		t.Fatalf("expected signal_quality to be set")
	}
	if v < 0 || v > 100 {
		t.Fatalf("signal_quality = %f, expected clamp to [0, 100]", v)
	}
}

func TestApplyCorrelationsIgnoresUnrelatedSource(t *testing.T) {
	ctx := simcontext.New("dev-1", simcontext.ClassResidential, time.Now())
	rng := rand.New(rand.NewSource(1))
	Apply(ctx, "unrelated_metric", 42, rng)
	if _, ok := ctx.Metric("signal_quality"); ok {
		t.Fatalf("expected no correlation rule to fire for unrelated_metric")
	}
}
