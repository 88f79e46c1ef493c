package hub

import (
	"testing"

	"github.com/arvindk/ntap/internal/models"
)

func tcpFrame(srcIP string, srcPort uint16, dstIP string, dstPort uint16, length int) models.PacketFrame {
	return models.PacketFrame{
		Datalink: &models.DatalinkInfo{Ethernet: &models.EthernetInfo{SrcMAC: "aa:aa:aa:aa:aa:aa", DstMAC: "bb:bb:bb:bb:bb:bb"}},
		IP:       &models.IPInfo{IPv4: &models.IPv4Info{SrcIP: srcIP, DstIP: dstIP}},
		Transport: &models.TransportInfo{
			TCP: &models.TCPInfo{SrcPort: srcPort, DstPort: dstPort},
		},
		PacketLen: length,
	}
}

func TestUpdate_EgressClassification(t *testing.T) {
	h := New()
	h.SetLocalIPMap(map[string]string{"10.0.0.5": "eth0"})

	h.Update(tcpFrame("10.0.0.5", 443, "8.8.8.8", 55555, 1500))

	if h.traffic.PacketSent != 1 || h.traffic.BytesSent != 1500 {
		t.Fatalf("global traffic = %+v, want packet_sent=1 bytes_sent=1500", h.traffic)
	}

	rh := h.remoteHosts["8.8.8.8"]
	if rh == nil {
		t.Fatal("expected remote host entry for 8.8.8.8")
	}
	if rh.Traffic.PacketSent != 1 || rh.Traffic.PacketReceived != 0 || rh.Traffic.BytesSent != 1500 {
		t.Errorf("remote host traffic = %+v, want packet_sent=1 packet_received=0 bytes_sent=1500", rh.Traffic)
	}

	key := models.FlowKey{InterfaceName: "eth0", LocalIP: "10.0.0.5", LocalPort: 443, RemoteIP: "8.8.8.8", RemotePort: 55555, Protocol: models.ProtocolTCP}
	flow := h.connectionMap[key]
	if flow == nil {
		t.Fatal("expected flow key to exist")
	}
	if flow.BytesSent != 1500 {
		t.Errorf("flow.BytesSent = %d, want 1500", flow.BytesSent)
	}
}

func TestUpdate_IngressOfSameFlow(t *testing.T) {
	h := New()
	h.SetLocalIPMap(map[string]string{"10.0.0.5": "eth0"})

	h.Update(tcpFrame("10.0.0.5", 443, "8.8.8.8", 55555, 1500))
	h.Update(tcpFrame("8.8.8.8", 55555, "10.0.0.5", 443, 500))

	if h.traffic.BytesReceived != 500 {
		t.Errorf("global BytesReceived = %d, want 500", h.traffic.BytesReceived)
	}
	if h.remoteHosts["8.8.8.8"].Traffic.BytesReceived != 500 {
		t.Errorf("remote host BytesReceived = %d, want 500", h.remoteHosts["8.8.8.8"].Traffic.BytesReceived)
	}

	key := models.FlowKey{InterfaceName: "eth0", LocalIP: "10.0.0.5", LocalPort: 443, RemoteIP: "8.8.8.8", RemotePort: 55555, Protocol: models.ProtocolTCP}
	flow := h.connectionMap[key]
	if flow == nil || flow.BytesReceived != 500 {
		t.Fatalf("expected same flow entry with BytesReceived=500, got %+v", flow)
	}
}

func TestUpdate_ThirdPartyTrafficDropped(t *testing.T) {
	h := New()
	h.SetLocalIPMap(map[string]string{"10.0.0.5": "eth0"})

	h.Update(tcpFrame("1.1.1.1", 1234, "2.2.2.2", 80, 100))

	if h.traffic.PacketSent != 0 || h.traffic.PacketReceived != 0 {
		t.Errorf("traffic = %+v, want untouched", h.traffic)
	}
	if len(h.remoteHosts) != 0 {
		t.Errorf("remote_hosts should be empty, got %d entries", len(h.remoteHosts))
	}
	if len(h.connectionMap) != 0 {
		t.Errorf("connection_map should be empty, got %d entries", len(h.connectionMap))
	}
}

func TestGetSnapshotAndResetData_ClearsDataButNotLocalSockets(t *testing.T) {
	h := New()
	h.SetLocalIPMap(map[string]string{"10.0.0.5": "eth0"})
	h.Update(tcpFrame("10.0.0.5", 443, "8.8.8.8", 55555, 1500))

	sock := models.LocalSocket{InterfaceName: "eth0", LocalPort: 443, Protocol: models.ProtocolTCP}
	h.ReconcileLocalSockets(map[models.LocalSocket]models.SocketProcess{
		sock: {SocketAddr: "10.0.0.5:443", Protocol: models.ProtocolTCP, Status: models.StateEstablished},
	})

	snap := h.GetSnapshotAndResetData()
	if snap.Traffic.BytesSent != 1500 {
		t.Errorf("snapshot traffic.BytesSent = %d, want 1500", snap.Traffic.BytesSent)
	}
	if len(snap.RemoteHosts) != 1 || len(snap.ConnectionMap) != 1 {
		t.Errorf("snapshot maps not fully populated: %+v", snap)
	}
	if len(snap.LocalSocketMap) != 1 {
		t.Errorf("snapshot local socket map = %d entries, want 1", len(snap.LocalSocketMap))
	}

	if h.traffic.BytesSent != 0 {
		t.Errorf("hub traffic not cleared after snapshot: %+v", h.traffic)
	}
	if len(h.remoteHosts) != 0 || len(h.connectionMap) != 0 {
		t.Errorf("hub data maps not cleared after snapshot")
	}
	if len(h.localSocketMap) != 1 {
		t.Errorf("local_socket_map should survive a snapshot drain, got %d entries", len(h.localSocketMap))
	}

	second := h.GetSnapshotAndResetData()
	if len(second.RemoteHosts) != 0 || len(second.ConnectionMap) != 0 {
		t.Error("second immediate snapshot should be empty for data maps")
	}
}
