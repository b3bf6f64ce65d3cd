package h264

import "testing"

func TestStorePutAndReplace(t *testing.T) {
	store := NewStore()
	sps1 := &SPS{SeqParameterSetID: 0, ProfileIDC: 66}
	store.PutSPS(sps1)
	got, ok := store.SPS(0)
	if !ok || got.ProfileIDC != 66 {
		t.Fatalf("SPS(0) = %+v, %v", got, ok)
	}
	sps2 := &SPS{SeqParameterSetID: 0, ProfileIDC: 100}
	store.PutSPS(sps2)
	got, ok = store.SPS(0)
	if !ok || got.ProfileIDC != 100 {
		t.Fatalf("replace failed: got %+v, %v", got, ok)
	}
}

func TestStoreMissingSPS(t *testing.T) {
	store := NewStore()
	if _, ok := store.SPS(5); ok {
		t.Fatalf("expected missing SPS")
	}
}

func TestStoreSPSForPPS(t *testing.T) {
	store := NewStore()
	store.PutSPS(&SPS{SeqParameterSetID: 2, ProfileIDC: 77})
	store.PutPPS(&PPS{PicParameterSetID: 9, SeqParameterSetID: 2})
	sps, ok := store.SPSForPPS(9)
	if !ok || sps.ProfileIDC != 77 {
		t.Fatalf("SPSForPPS(9) = %+v, %v", sps, ok)
	}
	if _, ok := store.SPSForPPS(99); ok {
		t.Fatalf("expected missing PPS to resolve to false")
	}
}
