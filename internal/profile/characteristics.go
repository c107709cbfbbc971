// Package profile loads per-device-type walk files into mibstore
// entries and holds the declarative device-type characteristics that
// the pool and value simulator consult (signal monitoring on/off,
// interface count, uptime bias, residential/enterprise classification).
package profile

import "github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"

// Characteristics describes one device type's defaults.
type Characteristics struct {
	SignalMonitoring bool
	InterfaceCount   int
	UptimeBiasHours  int // a new device of this type starts with an uptime in [0, this many hours)
	Class            simcontext.Class
}

// knownCharacteristics covers the built-in device-type tags;
// unlisted or user-defined tags fall back to defaultCharacteristics.
var knownCharacteristics = map[string]Characteristics{
	"cable_modem": {SignalMonitoring: true, InterfaceCount: 2, UptimeBiasHours: 72, Class: simcontext.ClassResidential},
	"mta":         {SignalMonitoring: true, InterfaceCount: 2, UptimeBiasHours: 72, Class: simcontext.ClassResidential},
	"cmts":        {SignalMonitoring: true, InterfaceCount: 48, UptimeBiasHours: 24 * 90, Class: simcontext.ClassEnterprise},
	"switch":      {SignalMonitoring: false, InterfaceCount: 48, UptimeBiasHours: 24 * 60, Class: simcontext.ClassEnterprise},
	"router":      {SignalMonitoring: false, InterfaceCount: 8, UptimeBiasHours: 24 * 60, Class: simcontext.ClassEnterprise},
	"server":      {SignalMonitoring: false, InterfaceCount: 2, UptimeBiasHours: 24 * 30, Class: simcontext.ClassEnterprise},
	"printer":     {SignalMonitoring: false, InterfaceCount: 1, UptimeBiasHours: 24 * 14, Class: simcontext.ClassResidential},
}

var defaultCharacteristics = Characteristics{SignalMonitoring: false, InterfaceCount: 1, UptimeBiasHours: 24, Class: simcontext.ClassResidential}

// For returns the Characteristics for deviceType, falling back to a
// conservative default for user-defined tags not in the known table.
func For(deviceType string) Characteristics {
	if c, ok := knownCharacteristics[deviceType]; ok {
		return c
	}
	return defaultCharacteristics
}

// ClassFor is a convenience accessor for the residential/enterprise
// classification alone, used by components that don't need the rest
// of Characteristics.
func ClassFor(deviceType string) simcontext.Class {
	return For(deviceType).Class
}
