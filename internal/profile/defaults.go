package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/oid"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

// deviceDescriptions maps device-type tags to the sysDescr string their
// synthesized profile advertises.
var deviceDescriptions = map[string]string{
	"cable_modem": "ARRIS DOCSIS 3.1 Cable Modem",
	"mta":         "ARRIS Touchstone MTA",
	"cmts":        "Cisco cBR-8 CMTS",
	"switch":      "Managed Ethernet Switch",
	"router":      "Edge Router",
	"server":      "Linux Server",
	"printer":     "Network Printer",
}

// DefaultEntries synthesizes a complete profile for deviceType from its
// Characteristics: the system group, an ifTable sized to the type's
// interface count, DOCSIS signal objects when the type monitors signal,
// and a CPU load object. Used when no walk file is provided for a
// device type, and by tests that need a realistic profile without a
// fixture file on disk.
func DefaultEntries(deviceType string) []mibstore.Entry {
	c := For(deviceType)
	desc, ok := deviceDescriptions[deviceType]
	if !ok {
		desc = "Simulated Device"
	}
	namePrefix := strings.ReplaceAll(deviceType, "_", "-")

	var out []mibstore.Entry
	str := func(oidStr, v string) {
		out = append(out, mibstore.Entry{
			OID: oidStr, BaseType: snmpval.KindOctetString,
			BaseValue: snmpval.OctetString([]byte(v)),
			Behavior:  mibstore.Behavior{Kind: mibstore.Static},
		})
	}
	i32 := func(oidStr string, v int32, b mibstore.Behavior) {
		out = append(out, mibstore.Entry{
			OID: oidStr, BaseType: snmpval.KindInteger32,
			BaseValue: snmpval.Int32(v), Behavior: b,
		})
	}
	c32 := func(oidStr string, v uint32, b mibstore.Behavior) {
		out = append(out, mibstore.Entry{
			OID: oidStr, BaseType: snmpval.KindCounter32,
			BaseValue: snmpval.Counter32(v), Behavior: b,
		})
	}
	g32 := func(oidStr string, v uint32, b mibstore.Behavior) {
		out = append(out, mibstore.Entry{
			OID: oidStr, BaseType: snmpval.KindGauge32,
			BaseValue: snmpval.Gauge32(v), Behavior: b,
		})
	}
	static := mibstore.Behavior{Kind: mibstore.Static}

	// System group.
	str("1.3.6.1.2.1.1.1.0", desc)
	out = append(out, mibstore.Entry{
		OID: "1.3.6.1.2.1.1.2.0", BaseType: snmpval.KindObjectIdentifier,
		BaseValue: snmpval.ObjectIdentifier("1.3.6.1.4.1.4491.2.4.1"),
		Behavior:  static,
	})
	out = append(out, mibstore.Entry{
		OID: "1.3.6.1.2.1.1.3.0", BaseType: snmpval.KindTimeTicks,
		BaseValue: snmpval.TimeTicks(0),
		Behavior:  mibstore.Behavior{Kind: mibstore.UptimeTicks},
	})
	str("1.3.6.1.2.1.1.4.0", "ops@example.net")
	str("1.3.6.1.2.1.1.5.0", namePrefix+"0")
	str("1.3.6.1.2.1.1.6.0", "Headend 1")
	i32("1.3.6.1.2.1.1.7.0", 72, static)

	// Interfaces group, column-major the way an ifTable walk visits it.
	n := c.InterfaceCount
	if n < 1 {
		n = 1
	}
	i32("1.3.6.1.2.1.2.1.0", int32(n), static)
	traffic := mibstore.Behavior{
		Kind: mibstore.TrafficCounter, RateLow: 1_000, RateHigh: 1_000_000,
		Variance: mibstore.VarianceDeviceSpecific, BurstP: 0.05,
	}
	errs := mibstore.Behavior{Kind: mibstore.ErrorCounter, RateLow: 0, RateHigh: 50}
	status := mibstore.Behavior{Kind: mibstore.StatusEnum}
	for i := 1; i <= n; i++ {
		i32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.1.%d", i), int32(i), static)
	}
	for i := 1; i <= n; i++ {
		str(fmt.Sprintf("1.3.6.1.2.1.2.2.1.2.%d", i), fmt.Sprintf("%s%d", namePrefix, i-1))
	}
	for i := 1; i <= n; i++ {
		i32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.3.%d", i), 6, static) // ethernetCsmacd
	}
	for i := 1; i <= n; i++ {
		i32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.4.%d", i), 1500, static)
	}
	for i := 1; i <= n; i++ {
		g32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.5.%d", i), 1_000_000_000, static)
	}
	for i := 1; i <= n; i++ {
		i32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.7.%d", i), 1, status)
	}
	for i := 1; i <= n; i++ {
		i32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.8.%d", i), 1, status)
	}
	for i := 1; i <= n; i++ {
		c32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.10.%d", i), 0, traffic)
	}
	for i := 1; i <= n; i++ {
		c32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.14.%d", i), 0, errs)
	}
	for i := 1; i <= n; i++ {
		c32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.16.%d", i), 0, traffic)
	}
	for i := 1; i <= n; i++ {
		c32(fmt.Sprintf("1.3.6.1.2.1.2.2.1.20.%d", i), 0, errs)
	}

	// High-capacity octet counters (IF-MIB ifXTable).
	for i := 1; i <= n; i++ {
		out = append(out, mibstore.Entry{
			OID: fmt.Sprintf("1.3.6.1.2.1.31.1.1.1.6.%d", i), BaseType: snmpval.KindCounter64,
			BaseValue: snmpval.Counter64(0), Behavior: traffic,
		})
	}
	for i := 1; i <= n; i++ {
		out = append(out, mibstore.Entry{
			OID: fmt.Sprintf("1.3.6.1.2.1.31.1.1.1.10.%d", i), BaseType: snmpval.KindCounter64,
			BaseValue: snmpval.Counter64(0), Behavior: traffic,
		})
	}

	// DOCSIS signal quality, only for types that monitor it. Values in
	// tenths of a dB so they stay positive in a Gauge32.
	if c.SignalMonitoring {
		g32("1.3.6.1.2.1.10.127.1.1.4.1.5.3", 380, mibstore.Behavior{
			Kind: mibstore.SignalGauge, RangeLow: 250, RangeHigh: 450, WeatherSensitive: true,
		})
		g32("1.3.6.1.2.1.10.127.2.2.1.3.2", 450, mibstore.Behavior{
			Kind: mibstore.SignalGauge, RangeLow: 300, RangeHigh: 580, WeatherSensitive: true,
		})
	}

	// Host resources CPU load.
	g32("1.3.6.1.2.1.25.3.3.1.2.1", 20, mibstore.Behavior{Kind: mibstore.CpuGauge})

	sort.Slice(out, func(i, j int) bool {
		return oid.Less(oid.MustParse(out[i].OID), oid.MustParse(out[j].OID))
	})
	return out
}
