// Package capture runs the per-interface packet source: it opens a
// live pcap handle, decodes each frame into a models.PacketFrame, and
// delivers it to a sink. Everything downstream (the hub, the ring
// buffer) only ever sees decoded frames, never a raw gopacket.Packet.
package capture

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/arvindk/ntap/internal/models"
)

// Config holds the pcap handle tuning knobs for one interface.
type Config struct {
	Interface    string
	SnapLen      int32
	Promiscuous  bool
	Timeout      time.Duration
	BufferSizeMB int
}

// DefaultConfig returns the capture tuning used when nothing else was
// requested: promiscuous, full-size snaplen, blocking reads.
func DefaultConfig(interfaceName string) Config {
	return Config{
		Interface:    interfaceName,
		SnapLen:      65536,
		Promiscuous:  true,
		Timeout:      pcap.BlockForever,
		BufferSizeMB: 32,
	}
}

// Sink receives one decoded frame at a time. A capture-engine caller
// supplies either a live sink (pushes into a bounded PacketStorage
// ring buffer) or an aggregating sink (hands the frame straight to the
// Flow Ingester) — spec §4.2's two sink modes.
type Sink func(models.PacketFrame)

// Engine owns one pcap handle for one interface and decodes packets
// into PacketFrames until canceled.
type Engine struct {
	ifName  string
	ifIndex int
	handle  *pcap.Handle
	source  *gopacket.PacketSource
	opts    models.CaptureOptions

	captureNo uint64
}

// New opens a live capture handle on the named interface.
func New(cfg Config, ifIndex int, opts models.CaptureOptions) (*Engine, error) {
	inactive, err := pcap.NewInactiveHandle(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", cfg.Interface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(int(cfg.SnapLen)); err != nil {
		return nil, fmt.Errorf("capture: snaplen: %w", err)
	}
	if err := inactive.SetPromisc(cfg.Promiscuous); err != nil {
		return nil, fmt.Errorf("capture: promisc: %w", err)
	}
	if err := inactive.SetTimeout(cfg.Timeout); err != nil {
		return nil, fmt.Errorf("capture: timeout: %w", err)
	}
	if cfg.BufferSizeMB > 0 {
		if err := inactive.SetBufferSize(cfg.BufferSizeMB * 1024 * 1024); err != nil {
			log.Printf("capture: %s: failed to set buffer size: %v", cfg.Interface, err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("capture: activate %s: %w", cfg.Interface, err)
	}

	return &Engine{
		ifName:  cfg.Interface,
		ifIndex: ifIndex,
		handle:  handle,
		source:  gopacket.NewPacketSource(handle, handle.LinkType()),
		opts:    opts,
	}, nil
}

// Run decodes packets until ctx is canceled, delivering each accepted
// frame to sink. Read errors on the capture handle are retried inside
// gopacket's packet source and are not logged here; a frame with a
// decode error is logged and still delivered with the layers that did
// decode. Run returns nil once the packet source closes its channel.
func (e *Engine) Run(ctx context.Context, sink Sink) error {
	packets := e.source.Packets()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case packet, ok := <-packets:
			if !ok {
				return nil
			}
			if packet == nil {
				continue
			}
			if err := packet.ErrorLayer(); err != nil {
				log.Printf("capture: %s: decode error, continuing: %v", e.ifName, err)
			}

			frame := e.decode(packet)
			if !matches(frame, e.opts) {
				continue
			}

			e.captureNo++
			frame.CaptureNo = e.captureNo
			sink(frame)
		}
	}
}

// Close releases the pcap handle, unblocking any in-flight Run call.
func (e *Engine) Close() {
	if e.handle != nil {
		e.handle.Close()
	}
}

// Stats reports capture-level packet counts, including kernel-level
// drops pcap itself observed.
func (e *Engine) Stats() (received, dropped uint64, err error) {
	stats, err := e.handle.Stats()
	if err != nil {
		return 0, 0, err
	}
	return uint64(stats.PacketsReceived), uint64(stats.PacketsDropped), nil
}

func (e *Engine) decode(packet gopacket.Packet) models.PacketFrame {
	frame := models.PacketFrame{
		IfIndex:   e.ifIndex,
		IfName:    e.ifName,
		PacketLen: packet.Metadata().Length,
		Timestamp: packet.Metadata().Timestamp,
	}

	if eth, ok := packet.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		if frame.Datalink == nil {
			frame.Datalink = &models.DatalinkInfo{}
		}
		frame.Datalink.Ethernet = &models.EthernetInfo{
			SrcMAC:    eth.SrcMAC.String(),
			DstMAC:    eth.DstMAC.String(),
			EtherType: uint16(eth.EthernetType),
		}
	}
	if arp, ok := packet.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		if frame.Datalink == nil {
			frame.Datalink = &models.DatalinkInfo{}
		}
		frame.Datalink.ARP = &models.ARPInfo{
			SrcIP: netIPString(arp.SourceProtAddress),
			DstIP: netIPString(arp.DstProtAddress),
		}
	}

	if ip4, ok := packet.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		if frame.IP == nil {
			frame.IP = &models.IPInfo{}
		}
		frame.IP.IPv4 = &models.IPv4Info{
			SrcIP:    ip4.SrcIP.String(),
			DstIP:    ip4.DstIP.String(),
			Protocol: ip4.Protocol.String(),
			TTL:      ip4.TTL,
		}
	}
	if ip6, ok := packet.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		if frame.IP == nil {
			frame.IP = &models.IPInfo{}
		}
		frame.IP.IPv6 = &models.IPv6Info{
			SrcIP:      ip6.SrcIP.String(),
			DstIP:      ip6.DstIP.String(),
			NextHeader: ip6.NextHeader.String(),
			HopLimit:   ip6.HopLimit,
		}
	}
	if icmp, ok := packet.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4); ok {
		if frame.IP == nil {
			frame.IP = &models.IPInfo{}
		}
		frame.IP.ICMP = &models.ICMPInfo{Type: icmp.TypeCode.Type(), Code: icmp.TypeCode.Code()}
	}
	if icmp6, ok := packet.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6); ok {
		if frame.IP == nil {
			frame.IP = &models.IPInfo{}
		}
		frame.IP.ICMPv6 = &models.ICMPInfo{Type: icmp6.TypeCode.Type(), Code: icmp6.TypeCode.Code()}
	}

	if tcp, ok := packet.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
		if frame.Transport == nil {
			frame.Transport = &models.TransportInfo{}
		}
		frame.Transport.TCP = &models.TCPInfo{
			SrcPort: uint16(tcp.SrcPort),
			DstPort: uint16(tcp.DstPort),
			SYN:     tcp.SYN,
			ACK:     tcp.ACK,
			FIN:     tcp.FIN,
			RST:     tcp.RST,
		}
	}
	if udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		if frame.Transport == nil {
			frame.Transport = &models.TransportInfo{}
		}
		frame.Transport.UDP = &models.UDPInfo{
			SrcPort: uint16(udp.SrcPort),
			DstPort: uint16(udp.DstPort),
		}
	}

	return frame
}

func netIPString(b []byte) string {
	if len(b) != 4 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}
