package snapshot

import (
	"sort"
	"strconv"

	"github.com/arvindk/ntap/internal/ipdb"
	"github.com/arvindk/ntap/internal/models"
)

// RemoteHostRow is one ranked entry in a TopRemoteHosts result.
type RemoteHostRow struct {
	IPAddr  string
	Info    models.RemoteHostInfo
	Ranking uint64 // TotalBytes, exposed for display/sort stability
}

// TopRemoteHosts returns up to limit remote hosts ordered by total
// bytes transferred, descending (spec §4.8 "TopRemoteHosts(limit)").
func (v *View) TopRemoteHosts(limit int) []RemoteHostRow {
	rows := make([]RemoteHostRow, 0, len(v.RemoteHosts))
	for ip, rh := range v.RemoteHosts {
		rows = append(rows, RemoteHostRow{IPAddr: ip, Info: *rh, Ranking: rh.Traffic.TotalBytes()})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ranking != rows[j].Ranking {
			return rows[i].Ranking > rows[j].Ranking
		}
		return rows[i].IPAddr < rows[j].IPAddr
	})
	return truncate(rows, limit)
}

// ProcessRow is one ranked entry in a TopProcesses result.
type ProcessRow struct {
	PID     int
	Name    string
	Traffic models.TrafficInfo
}

// TopProcesses folds every flow through local_socket_map to the owning
// process, aggregates their traffic, and returns the busiest processes
// (spec §4.8 "TopProcesses(limit)"). Flows whose local socket has no
// resolved process are grouped under PID 0, name "unknown".
func (v *View) TopProcesses(limit int) []ProcessRow {
	type key struct {
		pid  int
		name string
	}
	totals := map[key]*models.TrafficInfo{}

	for flowKey, ti := range v.ConnectionMap {
		sock := models.LocalSocket{InterfaceName: flowKey.InterfaceName, LocalPort: flowKey.LocalPort, Protocol: flowKey.Protocol}
		k := key{0, "unknown"}
		if sp, ok := v.LocalSocketMap[sock]; ok && sp.Process != nil {
			k = key{sp.Process.PID, sp.Process.Name}
		}
		acc, ok := totals[k]
		if !ok {
			acc = &models.TrafficInfo{}
			totals[k] = acc
		}
		acc.Accumulate(*ti, 0)
	}

	rows := make([]ProcessRow, 0, len(totals))
	for k, ti := range totals {
		rows = append(rows, ProcessRow{PID: k.pid, Name: k.name, Traffic: *ti})
	}
	sort.Slice(rows, func(i, j int) bool {
		bi, bj := rows[i].Traffic.TotalBytes(), rows[j].Traffic.TotalBytes()
		if bi != bj {
			return bi > bj
		}
		return rows[i].PID < rows[j].PID
	})
	return truncate(rows, limit)
}

// ConnectionFilter narrows a TopConnections query; a zero-value filter
// matches everything.
type ConnectionFilter struct {
	Protocol models.Protocol // "" matches both
	RemoteIP string          // "" matches any
}

func (f ConnectionFilter) matches(k models.FlowKey) bool {
	if f.Protocol != "" && k.Protocol != f.Protocol {
		return false
	}
	if f.RemoteIP != "" && k.RemoteIP != f.RemoteIP {
		return false
	}
	return true
}

// ConnectionRow is one ranked entry in a TopConnections result.
type ConnectionRow struct {
	Key     models.FlowKey
	Traffic models.TrafficInfo

	// InferredState is the flow's TCP state guessed from the last
	// observed SYN/ACK/FIN combination. It is only populated when
	// local_socket_map has no matching entry for the flow's local side
	// — when one exists, its OS-reported status is authoritative and
	// callers should prefer that over this heuristic (spec §4.9).
	InferredState models.SocketState
}

// TopConnections returns up to limit flows matching filter, ordered by
// total bytes descending (spec §4.8 "TopConnections(limit, filter)").
func (v *View) TopConnections(limit int, filter ConnectionFilter) []ConnectionRow {
	rows := make([]ConnectionRow, 0, len(v.ConnectionMap))
	for k, ti := range v.ConnectionMap {
		if !filter.matches(k) {
			continue
		}
		row := ConnectionRow{Key: k, Traffic: *ti}
		sock := models.LocalSocket{InterfaceName: k.InterfaceName, LocalPort: k.LocalPort, Protocol: k.Protocol}
		if _, ok := v.LocalSocketMap[sock]; !ok {
			if flags, ok := v.ConnectionFlags[k]; ok {
				row.InferredState = models.InferStateFromTCPFlags(flags.SYN, flags.ACK, flags.FIN)
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		bi, bj := rows[i].Traffic.TotalBytes(), rows[j].Traffic.TotalBytes()
		if bi != bj {
			return bi > bj
		}
		return rows[i].Key.RemotePort < rows[j].Key.RemotePort
	})
	return truncate(rows, limit)
}

// AppProtocolRow is one ranked entry in a TopAppProtocols result.
type AppProtocolRow struct {
	Name    string
	Traffic models.TrafficInfo
}

// TopAppProtocols aggregates flow traffic by resolved service name
// (spec §4.8 "TopAppProtocols(limit)"), using db to resolve well-known
// ports; flows with no match are grouped under "unknown".
func (v *View) TopAppProtocols(limit int, db *ipdb.DB) []AppProtocolRow {
	totals := map[string]*models.TrafficInfo{}

	for k, ti := range v.ConnectionMap {
		name := serviceName(db, k)
		acc, ok := totals[name]
		if !ok {
			acc = &models.TrafficInfo{}
			totals[name] = acc
		}
		acc.Accumulate(*ti, 0)
	}

	rows := make([]AppProtocolRow, 0, len(totals))
	for name, ti := range totals {
		rows = append(rows, AppProtocolRow{Name: name, Traffic: *ti})
	}
	sort.Slice(rows, func(i, j int) bool {
		bi, bj := rows[i].Traffic.TotalBytes(), rows[j].Traffic.TotalBytes()
		if bi != bj {
			return bi > bj
		}
		return rows[i].Name < rows[j].Name
	})
	return truncate(rows, limit)
}

func serviceName(db *ipdb.DB, k models.FlowKey) string {
	if db == nil {
		return "unknown"
	}
	// The remote side names the service for outbound connections; try
	// the remote port first, then the local port (inbound listeners).
	switch k.Protocol {
	case models.ProtocolTCP:
		if name, ok := db.LookupTCPService(k.RemotePort); ok {
			return name
		}
		if name, ok := db.LookupTCPService(k.LocalPort); ok {
			return name
		}
	case models.ProtocolUDP:
		if name, ok := db.LookupUDPService(k.RemotePort); ok {
			return name
		}
		if name, ok := db.LookupUDPService(k.LocalPort); ok {
			return name
		}
	}
	return "unknown"
}

// Overview is the one-shot global summary: total traffic plus the
// top-10 of every derived query (spec §4.8 "Overview()").
type Overview struct {
	Traffic      models.TrafficInfo
	RemoteHosts  []RemoteHostRow
	Processes    []ProcessRow
	Connections  []ConnectionRow
	AppProtocols []AppProtocolRow
}

// BuildOverview assembles the Overview snapshot reported by the CLI's
// one-shot stat mode.
func (v *View) BuildOverview(db *ipdb.DB) Overview {
	return Overview{
		Traffic:      v.Traffic,
		RemoteHosts:  v.TopRemoteHosts(10),
		Processes:    v.TopProcesses(10),
		Connections:  v.TopConnections(10, ConnectionFilter{}),
		AppProtocols: v.TopAppProtocols(10, db),
	}
}

func truncate[T any](rows []T, limit int) []T {
	if limit <= 0 || limit >= len(rows) {
		return rows
	}
	return rows[:limit]
}

// formatPort renders a port number as decimal text.
func formatPort(p uint16) string {
	return strconv.Itoa(int(p))
}
