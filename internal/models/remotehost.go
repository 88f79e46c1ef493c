package models

import "net"

// RemoteHostInfo aggregates everything known about one remote IP address.
//
// Fields other than Traffic are sticky: once a merge sets a non-empty or
// non-zero value, later merges must never overwrite it with an emptier
// one (spec merge policy, §4.5).
type RemoteHostInfo struct {
	MACAddr     string
	IPAddr      net.IP
	Hostname    string
	CountryCode string
	CountryName string
	ASN         uint32
	ASName      string
	Vendor      string // MAC OUI vendor name; supplemental to the base spec.

	Traffic TrafficInfo
}

// MergeMetadata applies the sticky-field merge policy: every metadata
// field in src that is non-empty (or non-zero for ASN) overwrites the
// corresponding field in r only if r's field is currently empty/zero.
// Traffic is not touched here; callers accumulate it separately so the
// window duration used for rate computation stays explicit at the call
// site.
func (r *RemoteHostInfo) MergeMetadata(src RemoteHostInfo) {
	if r.MACAddr == "" && src.MACAddr != "" {
		r.MACAddr = src.MACAddr
	}
	if r.Hostname == "" && src.Hostname != "" {
		r.Hostname = src.Hostname
	}
	if r.CountryCode == "" && src.CountryCode != "" {
		r.CountryCode = src.CountryCode
	}
	if r.CountryName == "" && src.CountryName != "" {
		r.CountryName = src.CountryName
	}
	if r.ASN == 0 && src.ASN != 0 {
		r.ASN = src.ASN
		r.ASName = src.ASName
	}
	if r.Vendor == "" && src.Vendor != "" {
		r.Vendor = src.Vendor
	}
}

// FlowKey uniquely identifies a network flow (6-tuple). For UDP this is
// a pseudo-flow: UDP is connectionless but is still keyed the same way.
type FlowKey struct {
	InterfaceName string
	LocalIP       string
	LocalPort     uint16
	RemoteIP      string
	RemotePort    uint16
	Protocol      Protocol
}

// LocalSocket identifies a local listening/endpoint slot for reconciling
// against the OS socket table.
type LocalSocket struct {
	InterfaceName string
	LocalPort     uint16
	Protocol      Protocol
}

// SocketState mirrors the OS-reported TCP connection state. The engine
// never drives this state machine itself; it only reflects what the OS
// reports (spec §4.9).
type SocketState int

const (
	StateUnknown SocketState = iota
	StateClosed
	StateListen
	StateSynSent
	StateSynReceived
	StateEstablished
	StateFinWait1
	StateFinWait2
	StateCloseWait
	StateClosing
	StateLastAck
	StateTimeWait
	StateDeleteTcb
)

func (s SocketState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateListen:
		return "LISTEN"
	case StateSynSent:
		return "SYN_SENT"
	case StateSynReceived:
		return "SYN_RECEIVED"
	case StateEstablished:
		return "ESTABLISHED"
	case StateFinWait1:
		return "FIN_WAIT1"
	case StateFinWait2:
		return "FIN_WAIT2"
	case StateCloseWait:
		return "CLOSE_WAIT"
	case StateClosing:
		return "CLOSING"
	case StateLastAck:
		return "LAST_ACK"
	case StateTimeWait:
		return "TIME_WAIT"
	case StateDeleteTcb:
		return "DELETE_TCB"
	default:
		return "UNKNOWN"
	}
}

// ProcessInfo names the process that owns a local socket.
type ProcessInfo struct {
	PID  int
	Name string
}

// SocketProcess is the value half of the local-socket map: the observed
// OS state of a local socket plus its owning process, when known.
type SocketProcess struct {
	SocketAddr string // "ip:port" of the local endpoint
	Protocol   Protocol
	Status     SocketState
	Process    *ProcessInfo
}

// InferStateFromTCPFlags implements the fallback flow-state heuristic
// from spec §4.9, used only when the socket prober has no matching
// LocalSocket entry for a flow.
func InferStateFromTCPFlags(syn, ack, fin bool) SocketState {
	switch {
	case syn && ack:
		return StateSynReceived
	case syn:
		return StateSynSent
	case fin && ack:
		return StateClosing
	case fin:
		return StateFinWait1
	case ack:
		return StateEstablished
	default:
		return StateUnknown
	}
}
