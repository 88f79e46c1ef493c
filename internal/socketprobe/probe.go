package socketprobe

import (
	"context"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/arvindk/ntap/internal/models"
)

// DefaultInterval is the prober's fixed cadence (spec §4.6: "10s default").
const DefaultInterval = 10 * time.Second

// Reconciler is the subset of the hub's API the prober needs; hub.Hub
// satisfies it.
type Reconciler interface {
	ReconcileLocalSockets(current map[models.LocalSocket]models.SocketProcess)
}

// LocalIPMapFunc returns the hub's current local_ip_map, fetched once
// per iteration and reused (spec §4.6 step 1).
type LocalIPMapFunc func() map[string]string

// Run polls the OS socket tables on DefaultInterval until ctx is
// canceled, reconciling the result into the hub's local_socket_map.
func Run(ctx context.Context, hub Reconciler, localIPMap LocalIPMapFunc) {
	ticker := time.NewTicker(DefaultInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current, err := Snapshot(localIPMap())
			if err != nil {
				log.Printf("socketprobe: skipping iteration: %v", err)
				continue
			}
			hub.ReconcileLocalSockets(current)
		}
	}
}

// Snapshot enumerates every TCP/UDP socket owned by a local interface
// and resolves its owning process. UDP sockets with local_port == 0
// are never included (spec §4.6 step 2, §8 boundary behavior).
func Snapshot(localIPMap map[string]string) (map[models.LocalSocket]models.SocketProcess, error) {
	var tcpEntries, udpEntries []procEntry
	for _, path := range procNetTCPPaths {
		entries, err := readProcNet(path)
		if err != nil {
			continue // missing tcp6 on an IPv4-only host is not an error
		}
		tcpEntries = append(tcpEntries, entries...)
	}
	for _, path := range procNetUDPPaths {
		entries, err := readProcNet(path)
		if err != nil {
			continue
		}
		udpEntries = append(udpEntries, entries...)
	}

	wantedInodes := map[uint64]bool{}
	for _, e := range tcpEntries {
		if e.inode > 0 {
			wantedInodes[e.inode] = true
		}
	}
	for _, e := range udpEntries {
		if e.localPort != 0 && e.inode > 0 {
			wantedInodes[e.inode] = true
		}
	}
	pids := resolveInodePIDs(wantedInodes)

	result := make(map[models.LocalSocket]models.SocketProcess)

	for _, e := range tcpEntries {
		ifaceName, known := localIPMap[e.localIP.String()]
		if !known {
			continue
		}
		key := models.LocalSocket{InterfaceName: ifaceName, LocalPort: e.localPort, Protocol: models.ProtocolTCP}
		sp := models.SocketProcess{
			SocketAddr: net.JoinHostPort(e.localIP.String(), strconv.Itoa(int(e.localPort))),
			Protocol:   models.ProtocolTCP,
			Status:     e.state,
		}
		if proc, ok := pids[e.inode]; ok {
			p := proc
			sp.Process = &p
		}
		result[key] = sp
	}

	for _, e := range udpEntries {
		if e.localPort == 0 {
			continue
		}
		ifaceName, known := localIPMap[e.localIP.String()]
		if !known {
			continue
		}
		key := models.LocalSocket{InterfaceName: ifaceName, LocalPort: e.localPort, Protocol: models.ProtocolUDP}
		sp := models.SocketProcess{
			SocketAddr: net.JoinHostPort(e.localIP.String(), strconv.Itoa(int(e.localPort))),
			Protocol:   models.ProtocolUDP,
			Status:     models.StateUnknown, // spec §4.6: "UDP status is always Unknown"
		}
		if proc, ok := pids[e.inode]; ok {
			p := proc
			sp.Process = &p
		}
		result[key] = sp
	}

	return result, nil
}
