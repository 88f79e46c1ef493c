package capture

import (
	"testing"

	"github.com/arvindk/ntap/internal/models"
)

func tcpFrame(srcPort, dstPort uint16) models.PacketFrame {
	return models.PacketFrame{
		Datalink: &models.DatalinkInfo{Ethernet: &models.EthernetInfo{EtherType: models.EtherTypeIPv4}},
		IP:       &models.IPInfo{IPv4: &models.IPv4Info{SrcIP: "10.0.0.5", DstIP: "8.8.8.8"}},
		Transport: &models.TransportInfo{
			TCP: &models.TCPInfo{SrcPort: srcPort, DstPort: dstPort},
		},
	}
}

func TestMatches_EmptyOptionsIsWildcard(t *testing.T) {
	if !matches(tcpFrame(443, 55555), models.CaptureOptions{}) {
		t.Fatal("empty options should match everything")
	}
}

func TestMatches_DstPortFilter(t *testing.T) {
	opts := models.CaptureOptions{DstPorts: []uint16{443}}

	if !matches(tcpFrame(55555, 443), opts) {
		t.Error("expected match on dst port 443")
	}
	if matches(tcpFrame(443, 8080), opts) {
		t.Error("expected no match: dst port 8080 not in filter")
	}
}

func TestMatches_PortFilterRejectsARP(t *testing.T) {
	arpFrame := models.PacketFrame{
		Datalink: &models.DatalinkInfo{
			Ethernet: &models.EthernetInfo{EtherType: models.EtherTypeARP},
			ARP:      &models.ARPInfo{SrcIP: "10.0.0.1", DstIP: "10.0.0.2"},
		},
	}
	opts := models.CaptureOptions{DstPorts: []uint16{443}}

	if matches(arpFrame, opts) {
		t.Error("ARP frame should not match a port filter (implies IPv4/IPv6 only)")
	}
}

func TestMatches_ProtocolFilter(t *testing.T) {
	opts := models.CaptureOptions{Protocols: []models.L4Protocol{models.L4UDP}}
	if matches(tcpFrame(53, 12345), opts) {
		t.Error("TCP frame should not match a UDP-only protocol filter")
	}
}
