// Package pipeline converts a decoded SNMP Message into a response
// Message: community and version checks, GET/GETNEXT/GETBULK
// semantics, varbind normalization, and response-size truncation.
//
// The pipeline is wire-format agnostic; it operates on the abstract
// Message/PDU/Varbind shapes below. The UDP listener is responsible
// for ASN.1/BER decode and encode around a call to Process.
package pipeline

import (
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

// Version is the SNMP protocol version carried on the wire.
type Version int

const (
	V1  Version = 0
	V2c Version = 1
)

// PDUKind identifies the PDU shape.
type PDUKind int

const (
	GetRequest PDUKind = iota
	GetNextRequest
	GetBulkRequest
	GetResponse
)

// SNMP error-status codes used by this implementation.
const (
	NoError    = 0
	TooBig     = 1
	NoSuchName = 2
	GenErr     = 5
)

// MaxRepetitionsClamp bounds GETBULK's max_repetitions regardless of
// what the wire requests. 256 keeps a single response bounded without
// needing a size estimate before the walk starts.
const MaxRepetitionsClamp = 256

// MaxResponseOctets is the soft cap GETBULK and oversized GET/GETNEXT
// responses truncate against, to stay comfortably under a typical MTU.
const MaxResponseOctets = 1400

// PDU is the abstract request/response payload.
type PDU struct {
	Kind           PDUKind
	RequestID      int32
	ErrorStatus    int
	ErrorIndex     int
	NonRepeaters   int
	MaxRepetitions int
	Varbinds       []snmpval.Varbind
}

// Message is a decoded SNMP message.
type Message struct {
	Version   Version
	Community string
	PDU       PDU
}

// Agent is the subset of the Device Agent the pipeline drives.
type Agent interface {
	Get(oidStr string, now time.Time) snmpval.Varbind
	GetNext(oidStr string, now time.Time) snmpval.Varbind
	GetBulkSlice(startOid string, maxReps int, now time.Time) []snmpval.Varbind
}

// Process runs req through the request pipeline against agent, which
// is already known to be listening on the datagram's destination port.
// The second return value is false when the message must be dropped
// silently (wrong community): callers must not send any reply.
func Process(req Message, expectedCommunity string, agent Agent, now time.Time) (Message, bool) {
	if req.Community != expectedCommunity {
		return Message{}, false
	}

	if req.Version == V1 && req.PDU.Kind == GetBulkRequest {
		return errorResponse(req, GenErr, 1), true
	}

	if len(req.PDU.Varbinds) == 0 {
		return errorResponse(req, GenErr, 0), true
	}

	switch req.PDU.Kind {
	case GetRequest:
		return handleGet(req, agent, now), true
	case GetNextRequest:
		return handleGetNext(req, agent, now), true
	case GetBulkRequest:
		return handleGetBulk(req, agent, now), true
	default:
		return errorResponse(req, GenErr, 0), true
	}
}

func baseResponse(req Message) Message {
	return Message{
		Version:   req.Version,
		Community: req.Community,
		PDU: PDU{
			Kind:      GetResponse,
			RequestID: req.PDU.RequestID,
		},
	}
}

func errorResponse(req Message, errStatus, errIndex int) Message {
	resp := baseResponse(req)
	resp.PDU.ErrorStatus = errStatus
	resp.PDU.ErrorIndex = errIndex
	resp.PDU.Varbinds = req.PDU.Varbinds
	return resp
}

func handleGet(req Message, agent Agent, now time.Time) Message {
	resp := baseResponse(req)
	out := make([]snmpval.Varbind, len(req.PDU.Varbinds))
	for i, vb := range req.PDU.Varbinds {
		out[i] = agent.Get(vb.OID, now)
	}
	if req.Version == V1 {
		for i, vb := range out {
			if vb.Value.Kind == snmpval.KindNoSuchObject || vb.Value.Kind == snmpval.KindNoSuchInstance {
				resp.PDU.ErrorStatus = NoSuchName
				resp.PDU.ErrorIndex = i + 1
				resp.PDU.Varbinds = req.PDU.Varbinds
				return resp
			}
		}
	}
	resp.PDU.Varbinds = out
	return truncateIfNeeded(resp)
}

func handleGetNext(req Message, agent Agent, now time.Time) Message {
	resp := baseResponse(req)
	out := make([]snmpval.Varbind, len(req.PDU.Varbinds))
	for i, vb := range req.PDU.Varbinds {
		out[i] = agent.GetNext(vb.OID, now)
	}
	if req.Version == V1 {
		for i, vb := range out {
			if vb.Value.Kind == snmpval.KindEndOfMibView {
				resp.PDU.ErrorStatus = NoSuchName
				resp.PDU.ErrorIndex = i + 1
				resp.PDU.Varbinds = req.PDU.Varbinds
				return resp
			}
		}
	}
	resp.PDU.Varbinds = out
	return truncateIfNeeded(resp)
}

func handleGetBulk(req Message, agent Agent, now time.Time) Message {
	resp := baseResponse(req)
	reqVarbinds := req.PDU.Varbinds

	n := req.PDU.NonRepeaters
	if n < 0 {
		n = 0
	}
	if n > len(reqVarbinds) {
		n = len(reqVarbinds)
	}
	m := req.PDU.MaxRepetitions
	if m < 0 {
		m = 0
	}
	if m > MaxRepetitionsClamp {
		m = MaxRepetitionsClamp
	}

	var out []snmpval.Varbind

	for i := 0; i < n; i++ {
		out = append(out, agent.GetNext(reqVarbinds[i].OID, now))
	}

	repeaters := reqVarbinds[n:]
	if m > 0 && len(repeaters) > 0 {
		current := make([]string, len(repeaters))
		done := make([]bool, len(repeaters))
		for i, vb := range repeaters {
			current[i] = vb.OID
		}
		doneCount := 0
		for k := 0; k < m && doneCount < len(repeaters); k++ {
			for i := range repeaters {
				if done[i] {
					out = append(out, snmpval.Varbind{OID: current[i], Value: snmpval.EndOfMibView()})
					continue
				}
				vb := agent.GetNext(current[i], now)
				out = append(out, vb)
				if vb.Value.Kind == snmpval.KindEndOfMibView {
					done[i] = true
					doneCount++
				}
				current[i] = vb.OID
			}
		}
	}

	resp.PDU.Varbinds = out
	return truncateIfNeeded(resp)
}

// estimateVarbindSize approximates the BER-encoded octet cost of one
// varbind: enough to make truncation decisions without a full
// encode-decode round trip during assembly.
func estimateVarbindSize(vb snmpval.Varbind) int {
	const overhead = 8 // tag/length bytes for the varbind sequence, OID header, value header
	size := overhead + len(vb.OID)
	switch vb.Value.Kind {
	case snmpval.KindOctetString:
		size += len(vb.Value.Bytes)
	case snmpval.KindObjectIdentifier:
		size += len(vb.Value.OID)
	default:
		size += 8 // integers/counters/gauges/timeticks/exceptions are small fixed-width
	}
	return size
}

// ForceTooBig converts resp into a tooBig error response with no
// varbinds, for a caller (the UDP listener) that discovered the
// encoded form exceeds the hard wire limit despite the pipeline's own
// soft-cap truncation.
func ForceTooBig(resp Message) Message {
	resp.PDU.ErrorStatus = TooBig
	resp.PDU.ErrorIndex = 0
	resp.PDU.Varbinds = nil
	return resp
}

// truncateIfNeeded enforces MaxResponseOctets on GET/GETNEXT/GETBULK
// responses: if the accumulated varbinds would exceed the cap, keep
// only as many as fit; if none fit, respond tooBig.
func truncateIfNeeded(resp Message) Message {
	total := 0
	fit := 0
	for _, vb := range resp.PDU.Varbinds {
		total += estimateVarbindSize(vb)
		if total > MaxResponseOctets {
			break
		}
		fit++
	}
	if fit == len(resp.PDU.Varbinds) {
		return resp
	}
	if fit == 0 {
		resp.PDU.ErrorStatus = TooBig
		resp.PDU.ErrorIndex = 0
		resp.PDU.Varbinds = nil
		return resp
	}
	resp.PDU.Varbinds = resp.PDU.Varbinds[:fit]
	return resp
}
