package ifaces

import (
	"net"
	"testing"
)

func TestLocalIPMap(t *testing.T) {
	ifs := []Interface{
		{Name: "eth0", Addresses: []net.IP{net.ParseIP("10.0.0.5"), net.ParseIP("fe80::1")}},
		{Name: "lo", Addresses: []net.IP{net.ParseIP("127.0.0.1")}},
	}

	m := LocalIPMap(ifs)

	if m["10.0.0.5"] != "eth0" {
		t.Errorf("local_ip_map[10.0.0.5] = %q, want eth0", m["10.0.0.5"])
	}
	if m["127.0.0.1"] != "lo" {
		t.Errorf("local_ip_map[127.0.0.1] = %q, want lo", m["127.0.0.1"])
	}
	if len(m) != 3 {
		t.Errorf("len(local_ip_map) = %d, want 3", len(m))
	}
}
