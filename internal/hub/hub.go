// Package hub implements the thread-safe Shared Netstat State: the
// process-wide mutable hub that every capture thread feeds into and
// the snapshotter drains. Each map owns its own lock; callers must
// follow the documented acquisition order (local IP map, traffic,
// remote hosts, connection map, IP DB) to avoid deadlock.
package hub

import (
	"net"
	"sync"
	"time"

	"github.com/arvindk/ntap/internal/ipdb"
	"github.com/arvindk/ntap/internal/models"
)

// Hub is the shared aggregation point fed by every capture thread and
// drained by the snapshotter.
type Hub struct {
	localIPMu  sync.RWMutex
	localIPMap map[string]string // IpAddr string -> interface name

	defaultIfaceMu sync.RWMutex
	defaultIface   string

	trafficMu sync.Mutex
	traffic   models.TrafficInfo

	remoteHostsMu sync.Mutex
	remoteHosts   map[string]*models.RemoteHostInfo

	connMu        sync.Mutex
	connectionMap map[models.FlowKey]*models.TrafficInfo
	connFlags     map[models.FlowKey]models.TCPFlagState

	localSocketMu  sync.Mutex
	localSocketMap map[models.LocalSocket]*models.SocketProcess

	ipdbMu sync.RWMutex
	db     *ipdb.DB
}

// New returns an empty hub ready to accept Update calls.
func New() *Hub {
	return &Hub{
		localIPMap:     map[string]string{},
		remoteHosts:    map[string]*models.RemoteHostInfo{},
		connectionMap:  map[models.FlowKey]*models.TrafficInfo{},
		connFlags:      map[models.FlowKey]models.TCPFlagState{},
		localSocketMap: map[models.LocalSocket]*models.SocketProcess{},
	}
}

// SetLocalIPMap replaces the IpAddr->interface-name map wholesale. The
// map value itself is never mutated in place once published, so
// readers can take a reference under a brief RLock and use it without
// holding the lock across the rest of ingest (design note: "treat that
// map as a snapshot cloned at the start of each ingest lock scope").
func (h *Hub) SetLocalIPMap(m map[string]string) {
	h.localIPMu.Lock()
	h.localIPMap = m
	h.localIPMu.Unlock()
}

func (h *Hub) snapshotLocalIPMap() map[string]string {
	h.localIPMu.RLock()
	defer h.localIPMu.RUnlock()
	return h.localIPMap
}

// LocalIPMap returns the current local_ip_map, for callers outside the
// ingest path (the socket prober) that need a point-in-time read.
func (h *Hub) LocalIPMap() map[string]string {
	return h.snapshotLocalIPMap()
}

// SetInterface replaces the default interface name under lock.
func (h *Hub) SetInterface(name string) {
	h.defaultIfaceMu.Lock()
	h.defaultIface = name
	h.defaultIfaceMu.Unlock()
}

// DefaultInterface returns the current default interface name.
func (h *Hub) DefaultInterface() string {
	h.defaultIfaceMu.RLock()
	defer h.defaultIfaceMu.RUnlock()
	return h.defaultIface
}

// LoadIPDB replaces the IP DB under lock. The DB itself is immutable
// once built, so readers only ever need the lock to fetch the current
// pointer.
func (h *Hub) LoadIPDB(db *ipdb.DB) {
	h.ipdbMu.Lock()
	h.db = db
	h.ipdbMu.Unlock()
}

func (h *Hub) ipdbSnapshot() *ipdb.DB {
	h.ipdbMu.RLock()
	defer h.ipdbMu.RUnlock()
	return h.db
}

// IPDB returns the currently loaded IP Geo/ASN database, for callers
// (the snapshot view's service-name lookups) that need it outside the
// Flow Ingester.
func (h *Hub) IPDB() *ipdb.DB {
	return h.ipdbSnapshot()
}

// Update runs the Flow Ingester: classify direction, update counters,
// enrich the remote host, and upsert the flow's connection entry
// (spec §4.4).
func (h *Hub) Update(frame models.PacketFrame) {
	srcIP, dstIP, ok := frameIPs(frame)
	if !ok {
		return
	}

	localMap := h.snapshotLocalIPMap()

	var direction models.Direction
	var localIP, remoteIP, ifaceName string

	if ifn, isLocal := localMap[srcIP]; isLocal {
		direction = models.DirectionEgress
		localIP, remoteIP, ifaceName = srcIP, dstIP, ifn
	} else if ifn, isLocal := localMap[dstIP]; isLocal {
		direction = models.DirectionIngress
		localIP, remoteIP, ifaceName = dstIP, srcIP, ifn
	} else {
		return // third-party traffic, dropped silently
	}

	now := time.Now()
	length := frame.PacketLen

	h.trafficMu.Lock()
	touchDirectional(&h.traffic, direction, length, now)
	h.trafficMu.Unlock()

	h.remoteHostsMu.Lock()
	rh := h.remoteHosts[remoteIP]
	if rh == nil {
		rh = &models.RemoteHostInfo{IPAddr: net.ParseIP(remoteIP)}
		h.remoteHosts[remoteIP] = rh
	}
	if rh.MACAddr == "" {
		if mac := oppositeSideMAC(frame, direction); mac != "" {
			rh.MACAddr = mac
		}
	}
	touchDirectional(&rh.Traffic, direction, length, now)
	h.enrich(rh, remoteIP)
	h.enrichVendor(rh)
	h.remoteHostsMu.Unlock()

	proto, localPort, remotePort, hasL4 := l4Info(frame, direction)
	if !hasL4 {
		return
	}
	if ifaceName == "" {
		ifaceName = "unknown"
	}
	key := models.FlowKey{
		InterfaceName: ifaceName,
		LocalIP:       localIP,
		LocalPort:     localPort,
		RemoteIP:      remoteIP,
		RemotePort:    remotePort,
		Protocol:      proto,
	}

	h.connMu.Lock()
	ti := h.connectionMap[key]
	if ti == nil {
		ti = &models.TrafficInfo{}
		h.connectionMap[key] = ti
	}
	touchDirectional(ti, direction, length, now)
	if tcp := frame.Transport.TCP; tcp != nil {
		h.connFlags[key] = models.TCPFlagState{SYN: tcp.SYN, ACK: tcp.ACK, FIN: tcp.FIN}
	}
	h.connMu.Unlock()
}

// enrich fills empty/zero RemoteHostInfo geo/AS fields from the IP DB.
// Caller holds remoteHostsMu.
func (h *Hub) enrich(rh *models.RemoteHostInfo, remoteIP string) {
	if rh.CountryCode != "" && rh.ASN != 0 {
		return
	}
	db := h.ipdbSnapshot()
	if db == nil {
		return
	}
	ip := net.ParseIP(remoteIP)
	var res ipdb.Result
	var ok bool
	if v4 := ip.To4(); v4 != nil {
		res, ok = db.LookupIPv4(ip)
	} else {
		res, ok = db.LookupIPv6(ip)
	}
	if !ok {
		return
	}
	if rh.CountryCode == "" && res.CountryCode != "" {
		rh.CountryCode = res.CountryCode
		rh.CountryName = res.CountryName
	}
	if rh.ASN == 0 && res.ASN != 0 {
		rh.ASN = res.ASN
		rh.ASName = res.ASName
	}
}

// enrichVendor fills the MAC OUI vendor name, an addition beyond
// spec.md's base contract (supplemented feature, see DESIGN.md).
// Caller holds remoteHostsMu.
func (h *Hub) enrichVendor(rh *models.RemoteHostInfo) {
	if rh.Vendor != "" || rh.MACAddr == "" {
		return
	}
	db := h.ipdbSnapshot()
	if db == nil {
		return
	}
	mac, err := net.ParseMAC(rh.MACAddr)
	if err != nil {
		return
	}
	if vendor := db.LookupVendor(mac); vendor != "" {
		rh.Vendor = vendor
	}
}

func touchDirectional(t *models.TrafficInfo, direction models.Direction, length int, now time.Time) {
	if direction == models.DirectionEgress {
		t.AddEgress(length, now)
	} else {
		t.AddIngress(length, now)
	}
}

func frameIPs(frame models.PacketFrame) (src, dst string, ok bool) {
	if frame.IP == nil {
		return "", "", false
	}
	if frame.IP.IPv4 != nil {
		return frame.IP.IPv4.SrcIP, frame.IP.IPv4.DstIP, true
	}
	if frame.IP.IPv6 != nil {
		return frame.IP.IPv6.SrcIP, frame.IP.IPv6.DstIP, true
	}
	return "", "", false
}

// oppositeSideMAC returns the ethernet MAC belonging to the remote
// side of the frame: the destination MAC on egress, the source MAC on
// ingress (spec §4.4 point 2).
func oppositeSideMAC(frame models.PacketFrame, direction models.Direction) string {
	if frame.Datalink == nil || frame.Datalink.Ethernet == nil {
		return ""
	}
	if direction == models.DirectionEgress {
		return frame.Datalink.Ethernet.DstMAC
	}
	return frame.Datalink.Ethernet.SrcMAC
}

func l4Info(frame models.PacketFrame, direction models.Direction) (proto models.Protocol, localPort, remotePort uint16, ok bool) {
	if frame.Transport == nil {
		return "", 0, 0, false
	}
	var srcPort, dstPort uint16
	switch {
	case frame.Transport.TCP != nil:
		proto = models.ProtocolTCP
		srcPort, dstPort = frame.Transport.TCP.SrcPort, frame.Transport.TCP.DstPort
	case frame.Transport.UDP != nil:
		proto = models.ProtocolUDP
		srcPort, dstPort = frame.Transport.UDP.SrcPort, frame.Transport.UDP.DstPort
	default:
		return "", 0, 0, false
	}
	if direction == models.DirectionEgress {
		return proto, srcPort, dstPort, true
	}
	return proto, dstPort, srcPort, true
}
