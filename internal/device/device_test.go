package device

import (
	"testing"
	"time"

	"github.com/debashish-mukherjee/go-snmpsim/internal/mibstore"
	"github.com/debashish-mukherjee/go-snmpsim/internal/simcontext"
	"github.com/debashish-mukherjee/go-snmpsim/internal/snmpval"
)

func newTestAgent(t *testing.T) (*Agent, time.Time) {
	t.Helper()
	store := mibstore.New()
	entries := []mibstore.Entry{
		{OID: "1.3.6.1.2.1.1.1.0", BaseType: snmpval.KindOctetString, BaseValue: snmpval.OctetString([]byte("cable modem"))},
		{OID: "1.3.6.1.2.1.1.3.0", BaseType: snmpval.KindTimeTicks, BaseValue: snmpval.TimeTicks(0), Behavior: mibstore.Behavior{Kind: mibstore.UptimeTicks}},
	}
	if err := store.Load("cable_modem", entries); err != nil {
		t.Fatalf("Load: %v", err)
	}
	boot := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := New("dev-1", "cable_modem", 20000, "public", store, simcontext.ClassResidential, boot)
	return a, boot
}

func TestGetKnownOID(t *testing.T) {
	a, boot := newTestAgent(t)
	vb := a.Get("1.3.6.1.2.1.1.1.0", boot)
	if vb.Value.Kind != snmpval.KindOctetString {
		t.Fatalf("expected OctetString, got %v", vb.Value.Kind)
	}
}

func TestGetUnknownOIDReturnsNoSuchObject(t *testing.T) {
	a, boot := newTestAgent(t)
	vb := a.Get("1.2.3.4.5", boot)
	if vb.Value.Kind != snmpval.KindNoSuchObject {
		t.Fatalf("expected NoSuchObject, got %v", vb.Value.Kind)
	}
}

func TestGetNextNeverReturnsQueriedOID(t *testing.T) {
	a, boot := newTestAgent(t)
	vb := a.GetNext("1.3.6.1.2.1.1.1.0", boot)
	if vb.OID == "1.3.6.1.2.1.1.1.0" {
		t.Fatalf("GetNext returned the queried OID")
	}
}

func TestGetNextEndOfMibView(t *testing.T) {
	a, boot := newTestAgent(t)
	vb := a.GetNext("1.3.6.1.2.1.1.3.0", boot)
	if vb.Value.Kind != snmpval.KindEndOfMibView {
		t.Fatalf("expected EndOfMibView past the last entry, got %v", vb.Value.Kind)
	}
}

func TestRebootResetsUptime(t *testing.T) {
	a, boot := newTestAgent(t)
	later := boot.Add(1 * time.Hour)
	before := a.Get("1.3.6.1.2.1.1.3.0", later)
	a.Reboot(later)
	after := a.Get("1.3.6.1.2.1.1.3.0", later)
	if after.Value.UInt32 >= before.Value.UInt32 {
		t.Fatalf("expected uptime to reset after reboot: before=%d after=%d", before.Value.UInt32, after.Value.UInt32)
	}
}

func TestGetBulkSliceStrictlyAfterStart(t *testing.T) {
	a, boot := newTestAgent(t)
	got := a.GetBulkSlice("1.3.6.1.2.1.1.1.0", 5, boot)
	if len(got) != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", len(got))
	}
	if got[0].OID == "1.3.6.1.2.1.1.1.0" {
		t.Fatalf("GetBulkSlice included the start OID")
	}
}

func TestInfoReportsDeviceType(t *testing.T) {
	a, boot := newTestAgent(t)
	info := a.GetInfo(boot.Add(5 * time.Minute))
	if info.DeviceType != "cable_modem" || info.Community != "public" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.OIDCount != 2 {
		t.Fatalf("OIDCount = %d, want 2", info.OIDCount)
	}
}
