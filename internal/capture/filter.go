package capture

import "github.com/arvindk/ntap/internal/models"

// matches applies the static allow-filter from spec §4.2: AND across
// categories, OR within a category, empty set = wildcard. A non-empty
// port or protocol set additionally restricts ethertype to IPv4/IPv6,
// even if EtherTypes itself was left empty.
func matches(frame models.PacketFrame, opts models.CaptureOptions) bool {
	ethertype, hasEthertype := frameEtherType(frame)

	if opts.ImpliesIPOnly() {
		if !hasEthertype || (ethertype != models.EtherTypeIPv4 && ethertype != models.EtherTypeIPv6) {
			return false
		}
	}

	if len(opts.EtherTypes) > 0 {
		if !hasEthertype || !containsU16(opts.EtherTypes, ethertype) {
			return false
		}
	}

	if len(opts.Protocols) > 0 {
		proto, ok := frameL4Protocol(frame)
		if !ok || !containsProto(opts.Protocols, proto) {
			return false
		}
	}

	srcIP, dstIP, hasIPs := frameIPs(frame)
	if len(opts.SrcIPs) > 0 {
		if !hasIPs || !containsString(opts.SrcIPs, srcIP) {
			return false
		}
	}
	if len(opts.DstIPs) > 0 {
		if !hasIPs || !containsString(opts.DstIPs, dstIP) {
			return false
		}
	}

	srcPort, dstPort, hasPorts := frameL4Ports(frame)
	if len(opts.SrcPorts) > 0 {
		if !hasPorts || !containsU16(opts.SrcPorts, srcPort) {
			return false
		}
	}
	if len(opts.DstPorts) > 0 {
		if !hasPorts || !containsU16(opts.DstPorts, dstPort) {
			return false
		}
	}

	return true
}

func frameEtherType(frame models.PacketFrame) (uint16, bool) {
	if frame.Datalink != nil && frame.Datalink.Ethernet != nil {
		return frame.Datalink.Ethernet.EtherType, true
	}
	// No Ethernet header decoded (e.g. a raw IP capture link type):
	// infer the ethertype from whichever IP layer is present so port
	// and protocol filters still apply.
	if frame.IP != nil {
		if frame.IP.IPv4 != nil {
			return models.EtherTypeIPv4, true
		}
		if frame.IP.IPv6 != nil {
			return models.EtherTypeIPv6, true
		}
	}
	return 0, false
}

func frameL4Protocol(frame models.PacketFrame) (models.L4Protocol, bool) {
	if frame.Transport != nil {
		if frame.Transport.TCP != nil {
			return models.L4TCP, true
		}
		if frame.Transport.UDP != nil {
			return models.L4UDP, true
		}
	}
	if frame.IP != nil {
		if frame.IP.ICMP != nil {
			return models.L4ICMP, true
		}
		if frame.IP.ICMPv6 != nil {
			return models.L4ICMPv6, true
		}
	}
	return "", false
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

func frameL4Ports(frame models.PacketFrame) (src, dst uint16, ok bool) {
	if frame.Transport == nil {
		return 0, 0, false
	}
	if frame.Transport.TCP != nil {
		return frame.Transport.TCP.SrcPort, frame.Transport.TCP.DstPort, true
	}
	if frame.Transport.UDP != nil {
		return frame.Transport.UDP.SrcPort, frame.Transport.UDP.DstPort, true
	}
	return 0, 0, false
}

func containsU16(set []uint16, v uint16) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsProto(set []models.L4Protocol, v models.L4Protocol) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
