package models

import "time"

// EthernetInfo carries the decoded Ethernet header, when present.
type EthernetInfo struct {
	SrcMAC    string
	DstMAC    string
	EtherType uint16
}

// ARPInfo carries the decoded ARP payload, when present.
type ARPInfo struct {
	SrcIP string
	DstIP string
}

// DatalinkInfo is the data-link layer slice of a decoded frame.
type DatalinkInfo struct {
	Ethernet *EthernetInfo
	ARP      *ARPInfo
}

// IPv4Info carries the decoded IPv4 header, when present.
type IPv4Info struct {
	SrcIP    string
	DstIP    string
	Protocol string
	TTL      uint8
}

// IPv6Info carries the decoded IPv6 header, when present.
type IPv6Info struct {
	SrcIP      string
	DstIP      string
	NextHeader string
	HopLimit   uint8
}

// ICMPInfo carries the minimal ICMP/ICMPv6 detail the engine cares about.
type ICMPInfo struct {
	Type uint8
	Code uint8
}

// IPInfo is the network layer slice of a decoded frame.
type IPInfo struct {
	IPv4   *IPv4Info
	IPv6   *IPv6Info
	ICMP   *ICMPInfo
	ICMPv6 *ICMPInfo
}

// TCPInfo carries the decoded TCP header fields the engine needs.
type TCPInfo struct {
	SrcPort uint16
	DstPort uint16
	SYN     bool
	ACK     bool
	FIN     bool
	RST     bool
}

// UDPInfo carries the decoded UDP header fields the engine needs.
type UDPInfo struct {
	SrcPort uint16
	DstPort uint16
}

// TransportInfo is the transport layer slice of a decoded frame.
type TransportInfo struct {
	TCP *TCPInfo
	UDP *UDPInfo
}

// PacketFrame is the unit the packet source emits: one decoded view of a
// captured L2 frame, built up layer by layer. A layer that failed to
// parse (or wasn't present) is left nil; the rest of the frame is still
// delivered (spec §4.2: "unparseable frames are emitted with their
// populated layers and the rest as None").
type PacketFrame struct {
	CaptureNo uint64
	IfIndex   int
	IfName    string

	Datalink  *DatalinkInfo
	IP        *IPInfo
	Transport *TransportInfo

	PacketLen int
	Timestamp time.Time
}

// EtherType well-known values used by capture filters.
const (
	EtherTypeIPv4 uint16 = 0x0800
	EtherTypeIPv6 uint16 = 0x86DD
	EtherTypeARP  uint16 = 0x0806
)

// L4Protocol names the transport protocols a capture filter can match on.
type L4Protocol string

const (
	L4TCP    L4Protocol = "TCP"
	L4UDP    L4Protocol = "UDP"
	L4ICMP   L4Protocol = "ICMP"
	L4ICMPv6 L4Protocol = "ICMPv6"
)

// CaptureOptions is the static allow-filter applied at capture time
// (spec §4.2). Every set is OR'd internally and AND'd across
// categories; an empty set is a wildcard.
type CaptureOptions struct {
	EtherTypes []uint16
	Protocols  []L4Protocol
	SrcIPs     []string
	DstIPs     []string
	SrcPorts   []uint16
	DstPorts   []uint16
}

// ImpliesIPOnly reports whether the options reference ports or L4
// protocols, which per spec §4.2 implies the ethertype set must be
// restricted to {IPv4, IPv6} even if EtherTypes was left empty.
func (o CaptureOptions) ImpliesIPOnly() bool {
	return len(o.Protocols) > 0 || len(o.SrcPorts) > 0 || len(o.DstPorts) > 0
}
