// Package models defines the shared data types that flow between the
// capture pipeline, the shared hub, and the snapshot views.
package models

import "time"

// Protocol identifies the transport-layer protocol a flow or socket uses.
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// Direction classifies a captured frame relative to the local host.
type Direction int

const (
	DirectionDropped Direction = iota
	DirectionIngress
	DirectionEgress
)

func (d Direction) String() string {
	switch d {
	case DirectionIngress:
		return "ingress"
	case DirectionEgress:
		return "egress"
	default:
		return "dropped"
	}
}

// AutonomousSystem maps an AS number to its registered name.
type AutonomousSystem struct {
	ASN    uint32
	ASName string
}

// Country maps an ISO-3166-1 alpha-2 code to its display name.
type Country struct {
	Code string
	Name string
}

// UnknownCountryCode reports whether code is one of the sentinel
// "unknown" country values that callers must treat as absent.
func UnknownCountryCode(code string) bool {
	return code == "" || code == "ZZ" || code == "-"
}

// OuiEntry maps a normalized 6-hex-digit MAC prefix to a vendor name.
type OuiEntry struct {
	MACPrefix  string
	VendorName string
}

// ServicePort maps a protocol-qualified port to a well-known service name.
type ServicePort struct {
	Protocol Protocol
	Port     uint16
	Name     string
}

// TCPFlagState is the most recently observed SYN/ACK/FIN combination
// for a flow, fed to InferStateFromTCPFlags when the socket prober has
// no matching LocalSocket entry for it (spec §4.9). It reflects the
// latest packet seen, not an accumulation across the flow's lifetime.
type TCPFlagState struct {
	SYN bool
	ACK bool
	FIN bool
}

// TrafficInfo accumulates directional packet/byte counters and derived
// rates for a remote host, a flow, or the global hub.
type TrafficInfo struct {
	PacketSent     uint64
	PacketReceived uint64
	BytesSent      uint64
	BytesReceived  uint64

	EgressPacketsPerSec  float64
	IngressPacketsPerSec float64
	EgressBytesPerSec    float64
	IngressBytesPerSec   float64

	FirstSeen time.Time
	LastSeen  time.Time
}

// touch stamps FirstSeen (if unset) and LastSeen with now.
func (t *TrafficInfo) touch(now time.Time) {
	if t.FirstSeen.IsZero() {
		t.FirstSeen = now
	}
	t.LastSeen = now
}

// addEgress records one locally-sourced packet of the given length.
func (t *TrafficInfo) addEgress(length int, now time.Time) {
	t.PacketSent++
	t.BytesSent = saturatingAdd(t.BytesSent, uint64(length))
	t.touch(now)
}

// addIngress records one remotely-sourced packet of the given length.
func (t *TrafficInfo) addIngress(length int, now time.Time) {
	t.PacketReceived++
	t.BytesReceived = saturatingAdd(t.BytesReceived, uint64(length))
	t.touch(now)
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

// AddEgress records an egress packet of the given length, touching the
// timestamp to now.
func (t *TrafficInfo) AddEgress(length int, now time.Time) { t.addEgress(length, now) }

// AddIngress records an ingress packet of the given length, touching the
// timestamp to now.
func (t *TrafficInfo) AddIngress(length int, now time.Time) { t.addIngress(length, now) }

// Accumulate adds delta's counters onto t (used when merging a drained
// snapshot into the long-lived consumer view) and recomputes rates from
// delta over the given window duration.
func (t *TrafficInfo) Accumulate(delta TrafficInfo, window time.Duration) {
	t.PacketSent = saturatingAdd(t.PacketSent, delta.PacketSent)
	t.PacketReceived = saturatingAdd(t.PacketReceived, delta.PacketReceived)
	t.BytesSent = saturatingAdd(t.BytesSent, delta.BytesSent)
	t.BytesReceived = saturatingAdd(t.BytesReceived, delta.BytesReceived)

	secs := window.Seconds()
	if secs > 0 {
		t.EgressPacketsPerSec = float64(delta.PacketSent) / secs
		t.IngressPacketsPerSec = float64(delta.PacketReceived) / secs
		t.EgressBytesPerSec = float64(delta.BytesSent) / secs
		t.IngressBytesPerSec = float64(delta.BytesReceived) / secs
	} else {
		t.EgressPacketsPerSec = 0
		t.IngressPacketsPerSec = 0
		t.EgressBytesPerSec = 0
		t.IngressBytesPerSec = 0
	}

	if t.FirstSeen.IsZero() || (!delta.FirstSeen.IsZero() && delta.FirstSeen.Before(t.FirstSeen)) {
		t.FirstSeen = delta.FirstSeen
	}
	if delta.LastSeen.After(t.LastSeen) {
		t.LastSeen = delta.LastSeen
	}
}

// TotalBytes returns bytes sent plus bytes received, the usual sort key
// for "top" queries.
func (t TrafficInfo) TotalBytes() uint64 {
	return t.BytesSent + t.BytesReceived
}
