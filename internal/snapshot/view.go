// Package snapshot implements the consumer-facing View: the
// accumulated state built by repeatedly merging hub snapshots, plus
// the TTL reaper and the derived "top" queries UIs read from.
package snapshot

import (
	"time"

	"github.com/arvindk/ntap/internal/hub"
	"github.com/arvindk/ntap/internal/models"
)

// DefaultTickRate is the snapshotter's default merge cadence (spec §4.8).
const DefaultTickRate = 1000 * time.Millisecond

// DefaultEntryTTL is the default age after which an idle entry is reaped.
const DefaultEntryTTL = 60 * time.Second

// View is the long-lived, consumer-facing accumulation of successive
// hub snapshots.
type View struct {
	Traffic         models.TrafficInfo
	RemoteHosts     map[string]*models.RemoteHostInfo
	ConnectionMap   map[models.FlowKey]*models.TrafficInfo
	ConnectionFlags map[models.FlowKey]models.TCPFlagState
	LocalSocketMap  map[models.LocalSocket]models.SocketProcess
	LocalIPMap      map[string]string

	sinceLastReap time.Duration
}

// New returns an empty view.
func New() *View {
	return &View{
		RemoteHosts:   map[string]*models.RemoteHostInfo{},
		ConnectionMap: map[models.FlowKey]*models.TrafficInfo{},
	}
}

// Merge folds a hub snapshot into the view (spec §4.8 step 2).
func (v *View) Merge(snap hub.Snapshot, window time.Duration) {
	v.Traffic.Accumulate(snap.Traffic, window)

	for ip, delta := range snap.RemoteHosts {
		rh, ok := v.RemoteHosts[ip]
		if !ok {
			copied := delta
			copied.Traffic = models.TrafficInfo{}
			copied.Traffic.Accumulate(delta.Traffic, window)
			v.RemoteHosts[ip] = &copied
			continue
		}
		rh.MergeMetadata(delta)
		rh.Traffic.Accumulate(delta.Traffic, window)
	}

	for key, delta := range snap.ConnectionMap {
		ti, ok := v.ConnectionMap[key]
		if !ok {
			ti = &models.TrafficInfo{}
			v.ConnectionMap[key] = ti
		}
		ti.Accumulate(delta, window)
	}

	// local_socket_map is replaced, not accumulated (spec §4.8 step 2).
	v.LocalSocketMap = snap.LocalSocketMap
	v.LocalIPMap = snap.LocalIPMap

	// connection_flags tracks the latest observed SYN/ACK/FIN per flow,
	// not a cumulative count, so each drained flow's entry is overwritten
	// rather than accumulated. Unlike local_socket_map the map itself is
	// not replaced: a flow silent this tick keeps its last-known flags,
	// since GetSnapshotAndResetData only drains flows that saw traffic.
	if v.ConnectionFlags == nil {
		v.ConnectionFlags = map[models.FlowKey]models.TCPFlagState{}
	}
	for k, flags := range snap.ConnectionFlags {
		v.ConnectionFlags[k] = flags
	}

	v.sinceLastReap += window
	if v.sinceLastReap >= DefaultEntryTTL {
		v.Reap(DefaultEntryTTL)
		v.sinceLastReap = 0
	}
}

// Reap drops remote hosts and flows idle for at least ttl. A reaped
// flow's LocalSocket key is also removed from local_socket_map, all
// within the same pass (spec §9: "keep this as an explicit cleanup
// pass inside a single critical section rather than via callbacks").
func (v *View) Reap(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	for ip, rh := range v.RemoteHosts {
		if rh.Traffic.LastSeen.Before(cutoff) {
			delete(v.RemoteHosts, ip)
		}
	}

	for key, ti := range v.ConnectionMap {
		if ti.LastSeen.Before(cutoff) {
			delete(v.ConnectionMap, key)
			delete(v.ConnectionFlags, key)
			sock := models.LocalSocket{InterfaceName: key.InterfaceName, LocalPort: key.LocalPort, Protocol: key.Protocol}
			delete(v.LocalSocketMap, sock)
		}
	}
}
