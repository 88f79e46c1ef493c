package capture

import "github.com/arvindk/ntap/internal/models"

// defaultStorageCapacity is the ring buffer size live mode falls back
// to when the caller doesn't override it (spec §4.2/§5: "ring buffer
// of capacity ≤ 255, oldest-evicted").
const defaultStorageCapacity = 255

// PacketStorage is the UI-facing ring buffer a live-mode receiver
// thread drains captured frames into. It never blocks a producer: once
// full, the oldest frame is evicted to make room for the newest.
type PacketStorage struct {
	capacity int
	buf      []models.PacketFrame
	next     int
	full     bool
}

// NewPacketStorage builds a ring buffer with the given capacity,
// clamped to defaultStorageCapacity if 0 or out of range.
func NewPacketStorage(capacity int) *PacketStorage {
	if capacity <= 0 || capacity > defaultStorageCapacity {
		capacity = defaultStorageCapacity
	}
	return &PacketStorage{capacity: capacity, buf: make([]models.PacketFrame, capacity)}
}

// Push appends a frame, evicting the oldest entry if the buffer is
// already full.
func (s *PacketStorage) Push(frame models.PacketFrame) {
	s.buf[s.next] = frame
	s.next = (s.next + 1) % s.capacity
	if s.next == 0 {
		s.full = true
	}
}

// Snapshot returns the buffered frames in oldest-to-newest order.
func (s *PacketStorage) Snapshot() []models.PacketFrame {
	if !s.full {
		out := make([]models.PacketFrame, s.next)
		copy(out, s.buf[:s.next])
		return out
	}
	out := make([]models.PacketFrame, s.capacity)
	copy(out, s.buf[s.next:])
	copy(out[s.capacity-s.next:], s.buf[:s.next])
	return out
}

// Len reports how many frames are currently buffered.
func (s *PacketStorage) Len() int {
	if s.full {
		return s.capacity
	}
	return s.next
}
