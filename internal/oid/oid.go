// Package oid implements a canonical, comparable representation of SNMP
// object identifiers.
//
// OIDs are stored as a slice of uint32 components rather than a dotted
// string. A prior string-based comparator compared components with
// fmt.Sscanf at every call site, which is both slow and easy to get
// wrong (e.g. "1.10" sorting before "1.9" under naive string compare).
// Parsing once at the boundary and comparing component-wise here avoids
// that entire bug class.
package oid

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidOID is returned when a string cannot be parsed as an OID.
var ErrInvalidOID = errors.New("oid: invalid object identifier")

// OID is a canonical, comparable object identifier.
type OID []uint32

// Parse converts a dotted-decimal string ("1.3.6.1.2.1.1.3.0") into an
// OID. A leading dot is accepted and stripped. Empty components,
// non-numeric components, and components that overflow uint32 are
// rejected.
func Parse(s string) (OID, error) {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, ErrInvalidOID
	}
	parts := strings.Split(s, ".")
	out := make(OID, len(parts))
	for i, p := range parts {
		if p == "" {
			return nil, ErrInvalidOID
		}
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, ErrInvalidOID
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// MustParse parses s and panics on error. Intended for package-level
// literals and tests, not request handling.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

// String renders the OID in dotted-decimal form.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(c), 10))
	}
	return b.String()
}

// Clone returns a copy of o that shares no backing array with it.
func (o OID) Clone() OID {
	c := make(OID, len(o))
	copy(c, o)
	return c
}

// Equal reports whether a and b have identical components.
func Equal(a, b OID) bool {
	return Compare(a, b) == 0
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater
// than b, using component-wise numeric ordering with the shorter OID
// treated as less when one is a strict prefix of the other.
func Compare(a, b OID) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b OID) bool {
	return Compare(a, b) < 0
}

// IsPrefixOf reports whether prefix is a proper or equal leading
// sequence of o's components.
func IsPrefixOf(prefix, o OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i, c := range prefix {
		if o[i] != c {
			return false
		}
	}
	return true
}

// Append returns a new OID with extra components appended, without
// mutating o.
func (o OID) Append(extra ...uint32) OID {
	out := make(OID, 0, len(o)+len(extra))
	out = append(out, o...)
	out = append(out, extra...)
	return out
}
