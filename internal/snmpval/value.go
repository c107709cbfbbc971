// Package snmpval defines the typed value variants carried in SNMP
// varbinds, independent of wire encoding.
package snmpval

import "github.com/gosnmp/gosnmp"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindInteger32 Kind = iota
	KindOctetString
	KindNull
	KindObjectIdentifier
	KindCounter32
	KindGauge32
	KindTimeTicks
	KindCounter64
	KindNoSuchObject
	KindNoSuchInstance
	KindEndOfMibView
)

// Value is a tagged variant over the SNMP wire types. Exception
// variants (NoSuchObject, NoSuchInstance, EndOfMibView) are legal only
// in a response varbind, never stored in a profile entry.
type Value struct {
	Kind   Kind
	Int    int32
	Bytes  []byte
	OID    string // ObjectIdentifier payload, dotted-decimal
	UInt32 uint32 // Counter32 / Gauge32 / TimeTicks
	UInt64 uint64 // Counter64
}

// Varbind is a (OID, value) binding. In a request the value is always
// Null; in a response its Kind matches the variant actually returned.
type Varbind struct {
	OID   string
	Value Value
}

// IsException reports whether v is one of the three exception variants.
func (v Value) IsException() bool {
	switch v.Kind {
	case KindNoSuchObject, KindNoSuchInstance, KindEndOfMibView:
		return true
	default:
		return false
	}
}

func Int32(v int32) Value             { return Value{Kind: KindInteger32, Int: v} }
func OctetString(v []byte) Value      { return Value{Kind: KindOctetString, Bytes: v} }
func ObjectIdentifier(v string) Value { return Value{Kind: KindObjectIdentifier, OID: v} }
func Counter32(v uint32) Value        { return Value{Kind: KindCounter32, UInt32: v} }
func Gauge32(v uint32) Value          { return Value{Kind: KindGauge32, UInt32: v} }
func TimeTicks(v uint32) Value        { return Value{Kind: KindTimeTicks, UInt32: v} }
func Counter64(v uint64) Value        { return Value{Kind: KindCounter64, UInt64: v} }

func NoSuchObject() Value   { return Value{Kind: KindNoSuchObject} }
func NoSuchInstance() Value { return Value{Kind: KindNoSuchInstance} }
func EndOfMibView() Value   { return Value{Kind: KindEndOfMibView} }

// Asn1BER returns the gosnmp wire type tag matching v's variant. Per
// RFC, Counter32/Gauge32/TimeTicks/Counter64 always use their
// application-class tags, never Null; exception variants are
// implicit-tagged Null in the context class.
func (v Value) Asn1BER() gosnmp.Asn1BER {
	switch v.Kind {
	case KindInteger32:
		return gosnmp.Integer
	case KindOctetString:
		return gosnmp.OctetString
	case KindNull:
		return gosnmp.Null
	case KindObjectIdentifier:
		return gosnmp.ObjectIdentifier
	case KindCounter32:
		return gosnmp.Counter32
	case KindGauge32:
		return gosnmp.Gauge32
	case KindTimeTicks:
		return gosnmp.TimeTicks
	case KindCounter64:
		return gosnmp.Counter64
	case KindNoSuchObject:
		return gosnmp.NoSuchObject
	case KindNoSuchInstance:
		return gosnmp.NoSuchInstance
	case KindEndOfMibView:
		return gosnmp.EndOfMibView
	default:
		return gosnmp.Null
	}
}

// WireValue returns the value in the representation gosnmp's PDU
// marshaler expects for this variant.
func (v Value) WireValue() interface{} {
	switch v.Kind {
	case KindInteger32:
		return int(v.Int)
	case KindOctetString:
		return v.Bytes
	case KindObjectIdentifier:
		return v.OID
	case KindCounter32, KindGauge32, KindTimeTicks:
		return v.UInt32
	case KindCounter64:
		return v.UInt64
	default:
		return nil
	}
}

// FromPDU converts a decoded gosnmp varbind into a Value.
func FromPDU(p gosnmp.SnmpPDU) Value {
	switch p.Type {
	case gosnmp.Integer:
		if i, ok := p.Value.(int); ok {
			return Int32(int32(i))
		}
		return Int32(0)
	case gosnmp.OctetString:
		if b, ok := p.Value.([]byte); ok {
			return OctetString(b)
		}
		if s, ok := p.Value.(string); ok {
			return OctetString([]byte(s))
		}
		return OctetString(nil)
	case gosnmp.ObjectIdentifier:
		if s, ok := p.Value.(string); ok {
			return ObjectIdentifier(s)
		}
		return ObjectIdentifier("")
	case gosnmp.Counter32:
		return Counter32(toUint32(p.Value))
	case gosnmp.Gauge32:
		return Gauge32(toUint32(p.Value))
	case gosnmp.TimeTicks:
		return TimeTicks(toUint32(p.Value))
	case gosnmp.Counter64:
		return Counter64(toUint64(p.Value))
	case gosnmp.NoSuchObject:
		return NoSuchObject()
	case gosnmp.NoSuchInstance:
		return NoSuchInstance()
	case gosnmp.EndOfMibView:
		return EndOfMibView()
	default:
		return Value{Kind: KindNull}
	}
}

func toUint32(v interface{}) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case uint:
		return uint32(n)
	case int:
		return uint32(n)
	case int64:
		return uint32(n)
	case uint64:
		return uint32(n)
	default:
		return 0
	}
}

func toUint64(v interface{}) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint:
		return uint64(n)
	case int:
		return uint64(n)
	case int64:
		return uint64(n)
	case uint32:
		return uint64(n)
	default:
		return 0
	}
}
