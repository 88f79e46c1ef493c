package hub

import "github.com/arvindk/ntap/internal/models"

// Snapshot is a value copy of the hub's data maps taken atomically
// under lock (spec GLOSSARY: "Snapshot").
type Snapshot struct {
	Traffic         models.TrafficInfo
	RemoteHosts     map[string]models.RemoteHostInfo
	ConnectionMap   map[models.FlowKey]models.TrafficInfo
	ConnectionFlags map[models.FlowKey]models.TCPFlagState
	LocalSocketMap  map[models.LocalSocket]models.SocketProcess
	LocalIPMap      map[string]string
}

// GetSnapshotAndResetData clones traffic, remote_hosts, connection_map
// and local_socket_map (plus local_ip_map), then clears the three data
// maps. local_socket_map is copied but left untouched: it tracks OS
// ground truth owned by the socket prober, not per-tick traffic (spec
// §4.5).
func (h *Hub) GetSnapshotAndResetData() Snapshot {
	localIPMap := h.snapshotLocalIPMap()

	h.trafficMu.Lock()
	traffic := h.traffic
	h.traffic = models.TrafficInfo{}
	h.trafficMu.Unlock()

	h.remoteHostsMu.Lock()
	remoteHosts := make(map[string]models.RemoteHostInfo, len(h.remoteHosts))
	for k, v := range h.remoteHosts {
		remoteHosts[k] = *v
	}
	h.remoteHosts = map[string]*models.RemoteHostInfo{}
	h.remoteHostsMu.Unlock()

	h.connMu.Lock()
	connMap := make(map[models.FlowKey]models.TrafficInfo, len(h.connectionMap))
	for k, v := range h.connectionMap {
		connMap[k] = *v
	}
	h.connectionMap = map[models.FlowKey]*models.TrafficInfo{}
	connFlags := h.connFlags
	h.connFlags = map[models.FlowKey]models.TCPFlagState{}
	h.connMu.Unlock()

	h.localSocketMu.Lock()
	localSockets := make(map[models.LocalSocket]models.SocketProcess, len(h.localSocketMap))
	for k, v := range h.localSocketMap {
		localSockets[k] = *v
	}
	h.localSocketMu.Unlock()

	return Snapshot{
		Traffic:         traffic,
		RemoteHosts:     remoteHosts,
		ConnectionMap:   connMap,
		ConnectionFlags: connFlags,
		LocalSocketMap:  localSockets,
		LocalIPMap:      localIPMap,
	}
}

// ReconcileLocalSockets applies the socket prober's latest OS-observed
// set: entries not present in current are removed, entries present are
// upserted (spec §4.6 step 4).
func (h *Hub) ReconcileLocalSockets(current map[models.LocalSocket]models.SocketProcess) {
	h.localSocketMu.Lock()
	defer h.localSocketMu.Unlock()

	for k := range h.localSocketMap {
		if _, ok := current[k]; !ok {
			delete(h.localSocketMap, k)
		}
	}
	for k, v := range current {
		sp := v
		h.localSocketMap[k] = &sp
	}
}
