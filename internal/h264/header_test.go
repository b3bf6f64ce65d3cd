package h264

import (
	"errors"
	"testing"
)

func TestNewHeaderForbiddenZeroBit(t *testing.T) {
	_, err := NewHeader(0b1000_0000)
	if !errors.Is(err, ErrHeaderInvalid) {
		t.Fatalf("got %v, want ErrHeaderInvalid", err)
	}
}

func TestHeaderFields(t *testing.T) {
	h, err := NewHeader(0b0101_0001)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	if got := h.RefIdc(); got != 0b10 {
		t.Fatalf("RefIdc = %d, want 2", got)
	}
	if got := h.UnitType(); got.ID() != 17 || !got.IsReserved() {
		t.Fatalf("UnitType = %v, want reserved 17", got)
	}
}

func TestUnitTypeRoundTrip(t *testing.T) {
	for id := uint8(0); id <= 31; id++ {
		ut, err := UnitTypeFor(id)
		if err != nil {
			t.Fatalf("UnitTypeFor(%d): %v", id, err)
		}
		if ut.ID() != id {
			t.Fatalf("UnitTypeFor(%d).ID() = %d", id, ut.ID())
		}
	}
	if _, err := UnitTypeFor(32); err == nil {
		t.Fatalf("UnitTypeFor(32) should fail")
	}
}

func TestUnitTypeNamed(t *testing.T) {
	if UnitTypeSPS.String() != "SPS" {
		t.Fatalf("SPS.String() = %q", UnitTypeSPS.String())
	}
	if !UnitTypeFor17IsReserved(t) {
		t.Fatalf("17 should be reserved")
	}
}

func UnitTypeFor17IsReserved(t *testing.T) bool {
	t.Helper()
	ut, err := UnitTypeFor(17)
	if err != nil {
		t.Fatalf("UnitTypeFor(17): %v", err)
	}
	return ut.IsReserved()
}
