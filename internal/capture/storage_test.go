package capture

import (
	"testing"

	"github.com/arvindk/ntap/internal/models"
)

func TestPacketStorage_EvictsOldestWhenFull(t *testing.T) {
	s := NewPacketStorage(3)
	for i := uint64(1); i <= 5; i++ {
		s.Push(models.PacketFrame{CaptureNo: i})
	}

	got := s.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len(Snapshot()) = %d, want 3", len(got))
	}
	want := []uint64{3, 4, 5}
	for i, f := range got {
		if f.CaptureNo != want[i] {
			t.Errorf("Snapshot()[%d].CaptureNo = %d, want %d", i, f.CaptureNo, want[i])
		}
	}
}

func TestPacketStorage_ClampsOversizedCapacity(t *testing.T) {
	s := NewPacketStorage(10000)
	if s.capacity != defaultStorageCapacity {
		t.Errorf("capacity = %d, want clamped to %d", s.capacity, defaultStorageCapacity)
	}
}
