package profile

import (
	"bufio"
	"log"
	"strconv"
	"strings"

	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

// WalkRecord is one line of the opaque walk-file format: a resolved
// OID plus its static type and value. The loader that produces these
// is the only part of the system allowed to know about the on-disk
// line syntax; everything downstream only ever sees WalkRecord.
type WalkRecord struct {
	OID   string
	Type  snmpval.Kind
	Value snmpval.Value
}

// knownSymbols maps the symbolic names the walk-file format may use in
// place of a numeric OID to their numeric form. Unknown symbols pass
// through verbatim, per the loader's "opaque, best effort" contract.
var knownSymbols = map[string]string{
	"sysDescr":    "1.3.6.1.2.1.1.1",
	"sysObjectID": "1.3.6.1.2.1.1.2",
	"sysUpTime":   "1.3.6.1.2.1.1.3",
	"sysContact":  "1.3.6.1.2.1.1.4",
	"sysName":     "1.3.6.1.2.1.1.5",
	"sysLocation": "1.3.6.1.2.1.1.6",
	"sysServices": "1.3.6.1.2.1.1.7",

	"ifIndex":         "1.3.6.1.2.1.2.2.1.1",
	"ifDescr":         "1.3.6.1.2.1.2.2.1.2",
	"ifType":          "1.3.6.1.2.1.2.2.1.3",
	"ifMtu":           "1.3.6.1.2.1.2.2.1.4",
	"ifSpeed":         "1.3.6.1.2.1.2.2.1.5",
	"ifPhysAddress":   "1.3.6.1.2.1.2.2.1.6",
	"ifAdminStatus":   "1.3.6.1.2.1.2.2.1.7",
	"ifOperStatus":    "1.3.6.1.2.1.2.2.1.8",
	"ifLastChange":    "1.3.6.1.2.1.2.2.1.9",
	"ifInOctets":      "1.3.6.1.2.1.2.2.1.10",
	"ifInUcastPkts":   "1.3.6.1.2.1.2.2.1.11",
	"ifInErrors":      "1.3.6.1.2.1.2.2.1.14",
	"ifOutOctets":     "1.3.6.1.2.1.2.2.1.16",
	"ifOutUcastPkts":  "1.3.6.1.2.1.2.2.1.17",
	"ifOutErrors":     "1.3.6.1.2.1.2.2.1.20",
	"ifName":          "1.3.6.1.2.1.31.1.1.1.1",
	"ifHCInOctets":    "1.3.6.1.2.1.31.1.1.1.6",
	"ifHCOutOctets":   "1.3.6.1.2.1.31.1.1.1.10",
	"ifHighSpeed":     "1.3.6.1.2.1.31.1.1.1.15",

	"docsIfSigQSignalNoise": "1.3.6.1.2.1.10.127.1.1.4.1.5",
	"docsIfCmStatusTxPower": "1.3.6.1.2.1.10.127.2.2.1.3",
	"hrProcessorLoad":       "1.3.6.1.2.1.25.3.3.1.2",
}

// behaviorFor assigns a value-simulation behavior to a resolved OID
// based on its well-known prefix. OIDs outside the known table default
// to Static; walk files carry bare type+value and behavior assignment
// stays here, the one place that understands MIB semantics.
func behaviorFor(oid string) mibstore.Behavior {
	switch {
	case strings.HasPrefix(oid, knownSymbols["sysUpTime"]+"."):
		return mibstore.Behavior{Kind: mibstore.UptimeTicks}
	case strings.HasPrefix(oid, knownSymbols["ifInOctets"]+"."), strings.HasPrefix(oid, knownSymbols["ifOutOctets"]+"."),
		strings.HasPrefix(oid, knownSymbols["ifHCInOctets"]+"."), strings.HasPrefix(oid, knownSymbols["ifHCOutOctets"]+"."):
		return mibstore.Behavior{Kind: mibstore.TrafficCounter, RateLow: 1_000, RateHigh: 1_000_000, Variance: mibstore.VarianceDeviceSpecific}
	case strings.HasPrefix(oid, knownSymbols["ifInErrors"]+"."), strings.HasPrefix(oid, knownSymbols["ifOutErrors"]+"."):
		return mibstore.Behavior{Kind: mibstore.ErrorCounter, RateLow: 0, RateHigh: 50}
	case strings.HasPrefix(oid, knownSymbols["ifOperStatus"]+"."), strings.HasPrefix(oid, knownSymbols["ifAdminStatus"]+"."):
		return mibstore.Behavior{Kind: mibstore.StatusEnum}
	case strings.HasPrefix(oid, knownSymbols["ifSpeed"]+"."), strings.HasPrefix(oid, knownSymbols["ifHighSpeed"]+"."):
		return mibstore.Behavior{Kind: mibstore.UtilizationGauge, RangeLow: 0, RangeHigh: 100}
	case strings.HasPrefix(oid, knownSymbols["docsIfSigQSignalNoise"]+"."):
		return mibstore.Behavior{Kind: mibstore.SignalGauge, RangeLow: 250, RangeHigh: 450, WeatherSensitive: true}
	case strings.HasPrefix(oid, knownSymbols["docsIfCmStatusTxPower"]+"."):
		return mibstore.Behavior{Kind: mibstore.SignalGauge, RangeLow: 300, RangeHigh: 580, WeatherSensitive: true}
	case strings.HasPrefix(oid, knownSymbols["hrProcessorLoad"]+"."):
		return mibstore.Behavior{Kind: mibstore.CpuGauge}
	default:
		return mibstore.Behavior{Kind: mibstore.Static}
	}
}

// ParseWalkFile parses the opaque "name_or_oid = TYPE: value" format
// into WalkRecords. Malformed lines are skipped and counted rather
// than aborting the whole load.
func ParseWalkFile(r *bufio.Scanner) (records []WalkRecord, skipped int) {
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, ok := parseWalkLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func parseWalkLine(line string) (WalkRecord, bool) {
	eq := strings.Index(line, "=")
	if eq < 0 {
		return WalkRecord{}, false
	}
	left := strings.TrimSpace(line[:eq])
	right := strings.TrimSpace(line[eq+1:])
	if left == "" || right == "" {
		return WalkRecord{}, false
	}

	resolved := resolveSymbol(left)

	colon := strings.Index(right, ":")
	if colon < 0 {
		return WalkRecord{}, false
	}
	typeTok := strings.TrimSpace(right[:colon])
	valueTok := strings.TrimSpace(right[colon+1:])

	val, kind, ok := parseTypedValue(typeTok, valueTok)
	if !ok {
		return WalkRecord{}, false
	}
	return WalkRecord{OID: resolved, Type: kind, Value: val}, true
}

// resolveSymbol resolves a leading symbolic name (optionally followed
// by a ".index" suffix, e.g. "ifDescr.1") against the known table.
// Unknown names, and names that already look numeric, pass through
// unchanged.
func resolveSymbol(name string) string {
	base := name
	suffix := ""
	if dot := strings.Index(name, "."); dot >= 0 {
		base = name[:dot]
		suffix = name[dot:]
	}
	if numeric, ok := knownSymbols[base]; ok {
		return numeric + suffix
	}
	return name
}

func parseTypedValue(typeTok, valueTok string) (snmpval.Value, snmpval.Kind, bool) {
	switch strings.ToUpper(typeTok) {
	case "STRING":
		s := strings.Trim(valueTok, `"`)
		return snmpval.OctetString([]byte(s)), snmpval.KindOctetString, true
	case "INTEGER":
		n, err := strconv.ParseInt(valueTok, 10, 32)
		if err != nil {
			return snmpval.Value{}, 0, false
		}
		return snmpval.Int32(int32(n)), snmpval.KindInteger32, true
	case "TIMETICKS":
		n, err := strconv.ParseUint(strings.Trim(valueTok, "()"), 10, 32)
		if err != nil {
			return snmpval.Value{}, 0, false
		}
		return snmpval.TimeTicks(uint32(n)), snmpval.KindTimeTicks, true
	case "COUNTER32":
		n, err := strconv.ParseUint(valueTok, 10, 32)
		if err != nil {
			return snmpval.Value{}, 0, false
		}
		return snmpval.Counter32(uint32(n)), snmpval.KindCounter32, true
	case "COUNTER64":
		n, err := strconv.ParseUint(valueTok, 10, 64)
		if err != nil {
			return snmpval.Value{}, 0, false
		}
		return snmpval.Counter64(n), snmpval.KindCounter64, true
	case "GAUGE32", "GAUGE":
		n, err := strconv.ParseUint(valueTok, 10, 32)
		if err != nil {
			return snmpval.Value{}, 0, false
		}
		return snmpval.Gauge32(uint32(n)), snmpval.KindGauge32, true
	case "OID":
		return snmpval.ObjectIdentifier(resolveSymbol(valueTok)), snmpval.KindObjectIdentifier, true
	default:
		return snmpval.Value{}, 0, false
	}
}

// BuildEntries assigns a value-simulation behavior to each record and
// returns the mibstore.Entry slice ready for Store.Load.
func BuildEntries(records []WalkRecord) []mibstore.Entry {
	out := make([]mibstore.Entry, len(records))
	for i, r := range records {
		out[i] = mibstore.Entry{
			OID:       r.OID,
			BaseType:  r.Type,
			BaseValue: r.Value,
			Behavior:  behaviorFor(r.OID),
		}
	}
	return out
}

// LoadInto parses the walk file text and loads the resulting entries
// into store under deviceType in one call.
func LoadInto(store *mibstore.Store, deviceType string, r *bufio.Scanner) error {
	records, skipped := ParseWalkFile(r)
	if skipped > 0 {
		log.Printf("profile: %d malformed line(s) skipped while loading %s", skipped, deviceType)
	}
	return store.Load(deviceType, BuildEntries(records))
}
