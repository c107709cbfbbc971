package pipeline

import (
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

// fakeAgent is a minimal, fully scripted Agent for pipeline tests.
type fakeAgent struct {
	entries []snmpval.Varbind // ascending sorted "profile"
}

func (f *fakeAgent) Get(oidStr string, now time.Time) snmpval.Varbind {
	for _, e := range f.entries {
		if e.OID == oidStr {
			return e
		}
	}
	return snmpval.Varbind{OID: oidStr, Value: snmpval.NoSuchObject()}
}

func (f *fakeAgent) GetNext(oidStr string, now time.Time) snmpval.Varbind {
	for _, e := range f.entries {
		if e.OID > oidStr {
			return e
		}
	}
	return snmpval.Varbind{OID: oidStr, Value: snmpval.EndOfMibView()}
}

func (f *fakeAgent) GetBulkSlice(startOid string, maxReps int, now time.Time) []snmpval.Varbind {
	var out []snmpval.Varbind
	for _, e := range f.entries {
		if e.OID > startOid {
			out = append(out, e)
			if len(out) == maxReps {
				break
			}
		}
	}
	return out
}

func testAgent() *fakeAgent {
	return &fakeAgent{entries: []snmpval.Varbind{
		{OID: "1.3.6.1.2.1.1.1.0", Value: snmpval.OctetString([]byte("cable modem"))},
		{OID: "1.3.6.1.2.1.2.2.1.1.1", Value: snmpval.Int32(1)},
		{OID: "1.3.6.1.2.1.2.2.1.1.2", Value: snmpval.Int32(2)},
	}}
}

func TestWrongCommunityDropped(t *testing.T) {
	req := Message{Version: V2c, Community: "private", PDU: PDU{Kind: GetRequest, Varbinds: []snmpval.Varbind{{OID: "1.3.6.1.2.1.1.1.0"}}}}
	_, ok := Process(req, "public", testAgent(), time.Now())
	if ok {
		t.Fatalf("expected community mismatch to be dropped")
	}
}

func TestV1GetBulkRejectedGenErr(t *testing.T) {
	req := Message{Version: V1, Community: "public", PDU: PDU{Kind: GetBulkRequest, Varbinds: []snmpval.Varbind{{OID: "1.3.6.1.2.1.1.1.0"}}}}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response, not a drop")
	}
	if resp.PDU.ErrorStatus != GenErr {
		t.Fatalf("error_status = %d, want genErr", resp.PDU.ErrorStatus)
	}
}

func TestEmptyVarbindListGenErr(t *testing.T) {
	req := Message{Version: V2c, Community: "public", PDU: PDU{Kind: GetRequest, Varbinds: nil}}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok || resp.PDU.ErrorStatus != GenErr {
		t.Fatalf("expected genErr for empty varbind list, got ok=%v status=%d", ok, resp.PDU.ErrorStatus)
	}
}

func TestGetV2cExceptionInVarbindNoError(t *testing.T) {
	req := Message{Version: V2c, Community: "public", PDU: PDU{Kind: GetRequest, Varbinds: []snmpval.Varbind{{OID: "9.9.9"}}}}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if resp.PDU.ErrorStatus != NoError {
		t.Fatalf("v2c should keep noError with exception varbind, got %d", resp.PDU.ErrorStatus)
	}
	if resp.PDU.Varbinds[0].Value.Kind != snmpval.KindNoSuchObject {
		t.Fatalf("expected NoSuchObject in varbind")
	}
}

func TestGetV1MissingOIDNoSuchName(t *testing.T) {
	req := Message{Version: V1, Community: "public", PDU: PDU{Kind: GetRequest, Varbinds: []snmpval.Varbind{{OID: "9.9.9"}}}}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if resp.PDU.ErrorStatus != NoSuchName {
		t.Fatalf("v1 missing OID should be noSuchName, got %d", resp.PDU.ErrorStatus)
	}
	if resp.PDU.ErrorIndex != 1 {
		t.Fatalf("error_index = %d, want 1", resp.PDU.ErrorIndex)
	}
}

func TestGetBulkNonRepeatersAndRepeaters(t *testing.T) {
	req := Message{
		Version:   V2c,
		Community: "public",
		PDU: PDU{
			Kind:           GetBulkRequest,
			NonRepeaters:   1,
			MaxRepetitions: 3,
			Varbinds: []snmpval.Varbind{
				{OID: "1.3.6.1.2.1.1.1.0"},
				{OID: "1.3.6.1.2.1.2.2.1.1"},
			},
		},
	}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if len(resp.PDU.Varbinds) != 4 {
		t.Fatalf("len(varbinds) = %d, want 4 (1 non-repeater + 3 repeater iterations)", len(resp.PDU.Varbinds))
	}
}

func TestGetBulkMaxRepetitionsZeroOnlyNonRepeaters(t *testing.T) {
	req := Message{
		Version:   V2c,
		Community: "public",
		PDU: PDU{
			Kind:           GetBulkRequest,
			NonRepeaters:   1,
			MaxRepetitions: 0,
			Varbinds: []snmpval.Varbind{
				{OID: "1.3.6.1.2.1.1.1.0"},
				{OID: "1.3.6.1.2.1.2.2.1.1"},
			},
		},
	}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if len(resp.PDU.Varbinds) != 1 {
		t.Fatalf("len(varbinds) = %d, want 1", len(resp.PDU.Varbinds))
	}
}

func TestGetBulkNegativeMaxRepetitionsTreatedAsZero(t *testing.T) {
	req := Message{
		Version:   V2c,
		Community: "public",
		PDU: PDU{
			Kind:           GetBulkRequest,
			NonRepeaters:   0,
			MaxRepetitions: -5,
			Varbinds:       []snmpval.Varbind{{OID: "1.3.6.1.2.1.1.1.0"}},
		},
	}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if len(resp.PDU.Varbinds) != 0 {
		t.Fatalf("expected empty result for negative max_repetitions, got %d", len(resp.PDU.Varbinds))
	}
}

func TestGetBulkAtEndOfMibSingleEndOfMibView(t *testing.T) {
	req := Message{
		Version:   V2c,
		Community: "public",
		PDU: PDU{
			Kind:           GetBulkRequest,
			NonRepeaters:   0,
			MaxRepetitions: 5,
			Varbinds:       []snmpval.Varbind{{OID: "1.3.6.1.2.1.2.2.1.1.2"}}, // last entry
		},
	}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	if resp.PDU.ErrorStatus != NoError {
		t.Fatalf("error_status = %d, want noError", resp.PDU.ErrorStatus)
	}
	if len(resp.PDU.Varbinds) != 1 {
		t.Fatalf("len(varbinds) = %d, want 1 once every repeater is exhausted", len(resp.PDU.Varbinds))
	}
	if resp.PDU.Varbinds[0].Value.Kind != snmpval.KindEndOfMibView {
		t.Fatalf("expected EndOfMibView, got kind %v", resp.PDU.Varbinds[0].Value.Kind)
	}
}

func TestGetBulkExhaustedRepeaterSlotFilledWhileOthersWalk(t *testing.T) {
	req := Message{
		Version:   V2c,
		Community: "public",
		PDU: PDU{
			Kind:           GetBulkRequest,
			NonRepeaters:   0,
			MaxRepetitions: 2,
			Varbinds: []snmpval.Varbind{
				{OID: "1.3.6.1.2.1.2.2.1.1.2"}, // already at the last entry
				{OID: "1.3.6.1.2.1.1.1.0"},    // two entries still ahead
			},
		},
	}
	resp, ok := Process(req, "public", testAgent(), time.Now())
	if !ok {
		t.Fatalf("expected a response")
	}
	// Interleaved per iteration: iter0_rep0, iter0_rep1, iter1_rep0, iter1_rep1.
	if len(resp.PDU.Varbinds) != 4 {
		t.Fatalf("len(varbinds) = %d, want 4", len(resp.PDU.Varbinds))
	}
	if resp.PDU.Varbinds[0].Value.Kind != snmpval.KindEndOfMibView {
		t.Fatalf("iter0 rep0 should be EndOfMibView")
	}
	if resp.PDU.Varbinds[2].Value.Kind != snmpval.KindEndOfMibView {
		t.Fatalf("iter1 rep0 slot should stay filled with EndOfMibView")
	}
	if resp.PDU.Varbinds[1].Value.Kind == snmpval.KindEndOfMibView {
		t.Fatalf("iter0 rep1 should still return a real entry")
	}
}
