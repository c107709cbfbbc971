package distribution

import (
	"errors"
	"testing"
)

func TestBuildMixInsufficientPorts(t *testing.T) {
	_, err := BuildMix("small_test", 65000, 10_000)
	var ipe *InsufficientPortsError
	if !errors.As(err, &ipe) {
		t.Fatalf("expected InsufficientPortsError, got %v", err)
	}
	if ipe.Required != 10_000 || ipe.Available != 536 {
		t.Fatalf("unexpected counts: %+v", ipe)
	}
}

func TestNewPortAssignmentRejectsOverlap(t *testing.T) {
	_, err := NewPortAssignment([]Range{
		{Low: 20000, High: 20010, DeviceType: "cable_modem"},
		{Low: 20005, High: 20015, DeviceType: "switch"},
	})
	if err == nil {
		t.Fatalf("expected overlap to be rejected")
	}
}

func TestResolveFindsCorrectRange(t *testing.T) {
	pa, err := NewPortAssignment([]Range{
		{Low: 20000, High: 20010, DeviceType: "cable_modem"},
		{Low: 20010, High: 20015, DeviceType: "switch"},
	})
	if err != nil {
		t.Fatalf("NewPortAssignment: %v", err)
	}
	dt, err := pa.Resolve(20012)
	if err != nil || dt != "switch" {
		t.Fatalf("Resolve(20012) = (%q, %v), want (switch, nil)", dt, err)
	}
	if _, err := pa.Resolve(19999); err == nil {
		t.Fatalf("expected out-of-range port to error")
	}
}

func TestValidateDetectsGap(t *testing.T) {
	pa, err := NewPortAssignment([]Range{
		{Low: 20000, High: 20010, DeviceType: "cable_modem"},
		{Low: 20020, High: 20030, DeviceType: "switch"},
	})
	if err != nil {
		t.Fatalf("NewPortAssignment: %v", err)
	}
	if err := pa.Validate(); err == nil {
		t.Fatalf("expected gap to be detected")
	}
}

func TestBuildMixCoversAllPorts(t *testing.T) {
	pa, err := BuildMix("cable_network", 20000, 100)
	if err != nil {
		t.Fatalf("BuildMix: %v", err)
	}
	if err := pa.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	types := pa.DeviceTypes()
	if len(types) != 3 {
		t.Fatalf("expected 3 device types in cable_network mix, got %d: %v", len(types), types)
	}
}

func TestBuildMixUnknownName(t *testing.T) {
	if _, err := BuildMix("not_a_real_mix", 20000, 10); err == nil {
		t.Fatalf("expected unknown mix name to error")
	}
}

func TestWarmUpCallsCreateForEveryPort(t *testing.T) {
	pa, err := NewPortAssignment([]Range{{Low: 20000, High: 20005, DeviceType: "cable_modem"}})
	if err != nil {
		t.Fatalf("NewPortAssignment: %v", err)
	}
	var created []int
	WarmUp(pa, func(port int) error {
		created = append(created, port)
		return nil
	}, 2)
	if len(created) != 5 {
		t.Fatalf("expected 5 ports warmed, got %d", len(created))
	}
}
