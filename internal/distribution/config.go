package distribution

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FleetConfig is the on-disk description of a simulated fleet: which
// device type owns which port range, where each device type's walk
// file lives, and the pool/listener knobs that apply fleet-wide.
// Operators hand-author this file; the walk-file line format is
// handled separately and kept opaque to this parser.
type FleetConfig struct {
	ListenAddress      string            `yaml:"listen_address"`
	Community          string            `yaml:"community"`
	MaxDevices         int               `yaml:"max_devices"`
	IdleTimeoutSeconds int               `yaml:"idle_timeout_seconds"`
	Prewarm            bool              `yaml:"prewarm"`
	StatsCron          string            `yaml:"stats_cron"`
	ReloadCron         string            `yaml:"reload_cron"`
	PortRanges         []RangeConfig     `yaml:"port_ranges"`
	WalkFiles          map[string]string `yaml:"walk_files"`
}

// RangeConfig is one entry of FleetConfig.PortRanges.
type RangeConfig struct {
	Low        int    `yaml:"low"`
	High       int    `yaml:"high"`
	DeviceType string `yaml:"device_type"`
}

// LoadFleetConfig reads and parses a FleetConfig from path.
func LoadFleetConfig(path string) (*FleetConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("distribution: open fleet config: %w", err)
	}
	defer f.Close()
	return ParseFleetConfig(f)
}

// ParseFleetConfig decodes a FleetConfig from r, applying the same
// defaults LoadFleetConfig would.
func ParseFleetConfig(r io.Reader) (*FleetConfig, error) {
	var cfg FleetConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("distribution: parse fleet config: %w", err)
	}
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = "0.0.0.0"
	}
	if cfg.Community == "" {
		cfg.Community = "public"
	}
	if cfg.IdleTimeoutSeconds <= 0 {
		cfg.IdleTimeoutSeconds = 900
	}
	return &cfg, nil
}

// PortAssignment builds the pool.Resolver described by cfg.
func (cfg *FleetConfig) PortAssignment() (*PortAssignment, error) {
	ranges := make([]Range, len(cfg.PortRanges))
	for i, rc := range cfg.PortRanges {
		ranges[i] = Range{Low: rc.Low, High: rc.High, DeviceType: rc.DeviceType}
	}
	return NewPortAssignment(ranges)
}
