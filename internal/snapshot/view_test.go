package snapshot

import (
	"testing"
	"time"

	"github.com/arvindk/ntap/internal/hub"
	"github.com/arvindk/ntap/internal/models"
)

func TestMerge_AccumulatesTrafficAcrossWindows(t *testing.T) {
	v := New()

	snap1 := hub.Snapshot{
		Traffic:       models.TrafficInfo{BytesSent: 1000, PacketSent: 1, LastSeen: time.Now()},
		RemoteHosts:   map[string]models.RemoteHostInfo{},
		ConnectionMap: map[models.FlowKey]models.TrafficInfo{},
	}
	v.Merge(snap1, time.Second)

	snap2 := hub.Snapshot{
		Traffic:       models.TrafficInfo{BytesSent: 500, PacketSent: 1, LastSeen: time.Now()},
		RemoteHosts:   map[string]models.RemoteHostInfo{},
		ConnectionMap: map[models.FlowKey]models.TrafficInfo{},
	}
	v.Merge(snap2, time.Second)

	if v.Traffic.BytesSent != 1500 {
		t.Fatalf("Traffic.BytesSent = %d, want 1500", v.Traffic.BytesSent)
	}
}

func TestMerge_RemoteHostMetadataIsSticky(t *testing.T) {
	v := New()

	snap1 := hub.Snapshot{
		RemoteHosts: map[string]models.RemoteHostInfo{
			"1.2.3.4": {MACAddr: "aa:bb:cc:dd:ee:ff", Traffic: models.TrafficInfo{BytesSent: 100, LastSeen: time.Now()}},
		},
		ConnectionMap: map[models.FlowKey]models.TrafficInfo{},
	}
	v.Merge(snap1, time.Second)

	snap2 := hub.Snapshot{
		RemoteHosts: map[string]models.RemoteHostInfo{
			"1.2.3.4": {MACAddr: "", Hostname: "example.com", Traffic: models.TrafficInfo{BytesSent: 50, LastSeen: time.Now()}},
		},
		ConnectionMap: map[models.FlowKey]models.TrafficInfo{},
	}
	v.Merge(snap2, time.Second)

	rh := v.RemoteHosts["1.2.3.4"]
	if rh.MACAddr != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("MACAddr overwritten: got %q", rh.MACAddr)
	}
	if rh.Hostname != "example.com" {
		t.Fatalf("Hostname not merged: got %q", rh.Hostname)
	}
	if rh.Traffic.BytesSent != 150 {
		t.Fatalf("Traffic.BytesSent = %d, want 150", rh.Traffic.BytesSent)
	}
}

func TestReap_DropsIdleRemoteHostsAndCascadesLocalSocket(t *testing.T) {
	v := New()
	old := time.Now().Add(-2 * time.Hour)

	v.RemoteHosts["9.9.9.9"] = &models.RemoteHostInfo{Traffic: models.TrafficInfo{LastSeen: old}}

	flowKey := models.FlowKey{InterfaceName: "eth0", LocalPort: 5000, RemoteIP: "9.9.9.9", RemotePort: 443, Protocol: models.ProtocolTCP}
	v.ConnectionMap[flowKey] = &models.TrafficInfo{LastSeen: old}
	sock := models.LocalSocket{InterfaceName: "eth0", LocalPort: 5000, Protocol: models.ProtocolTCP}
	v.LocalSocketMap = map[models.LocalSocket]models.SocketProcess{sock: {SocketAddr: "10.0.0.1:5000"}}

	v.Reap(time.Minute)

	if _, ok := v.RemoteHosts["9.9.9.9"]; ok {
		t.Fatal("expected idle remote host to be reaped")
	}
	if _, ok := v.ConnectionMap[flowKey]; ok {
		t.Fatal("expected idle flow to be reaped")
	}
	if _, ok := v.LocalSocketMap[sock]; ok {
		t.Fatal("expected cascaded local socket removal")
	}
}

func TestTopRemoteHosts_OrdersByTotalBytesDescending(t *testing.T) {
	v := New()
	v.RemoteHosts["a"] = &models.RemoteHostInfo{Traffic: models.TrafficInfo{BytesSent: 100}}
	v.RemoteHosts["b"] = &models.RemoteHostInfo{Traffic: models.TrafficInfo{BytesSent: 900}}
	v.RemoteHosts["c"] = &models.RemoteHostInfo{Traffic: models.TrafficInfo{BytesSent: 500}}

	rows := v.TopRemoteHosts(2)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].IPAddr != "b" || rows[1].IPAddr != "c" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestTopConnections_InfersStateWhenNoLocalSocketMatch(t *testing.T) {
	v := New()
	flowKey := models.FlowKey{InterfaceName: "eth0", LocalPort: 5000, RemoteIP: "9.9.9.9", RemotePort: 443, Protocol: models.ProtocolTCP}
	v.ConnectionMap[flowKey] = &models.TrafficInfo{BytesSent: 42}
	v.ConnectionFlags = map[models.FlowKey]models.TCPFlagState{flowKey: {SYN: true}}
	v.LocalSocketMap = map[models.LocalSocket]models.SocketProcess{}

	rows := v.TopConnections(10, ConnectionFilter{})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].InferredState != models.StateSynSent {
		t.Fatalf("InferredState = %v, want StateSynSent", rows[0].InferredState)
	}
}

func TestTopConnections_NoInferenceWhenLocalSocketMatches(t *testing.T) {
	v := New()
	flowKey := models.FlowKey{InterfaceName: "eth0", LocalPort: 5000, RemoteIP: "9.9.9.9", RemotePort: 443, Protocol: models.ProtocolTCP}
	v.ConnectionMap[flowKey] = &models.TrafficInfo{BytesSent: 42}
	v.ConnectionFlags = map[models.FlowKey]models.TCPFlagState{flowKey: {SYN: true}}
	sock := models.LocalSocket{InterfaceName: "eth0", LocalPort: 5000, Protocol: models.ProtocolTCP}
	v.LocalSocketMap = map[models.LocalSocket]models.SocketProcess{sock: {Status: models.StateEstablished}}

	rows := v.TopConnections(10, ConnectionFilter{})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].InferredState != models.StateUnknown {
		t.Fatalf("InferredState = %v, want StateUnknown (socket prober authoritative)", rows[0].InferredState)
	}
}

func TestTopProcesses_GroupsUnresolvedUnderUnknown(t *testing.T) {
	v := New()
	flowKey := models.FlowKey{InterfaceName: "eth0", LocalPort: 5000, RemoteIP: "9.9.9.9", RemotePort: 443, Protocol: models.ProtocolTCP}
	v.ConnectionMap[flowKey] = &models.TrafficInfo{BytesSent: 42}
	v.LocalSocketMap = map[models.LocalSocket]models.SocketProcess{}

	rows := v.TopProcesses(10)
	if len(rows) != 1 || rows[0].Name != "unknown" || rows[0].Traffic.BytesSent != 42 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
