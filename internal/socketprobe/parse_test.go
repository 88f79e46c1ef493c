package socketprobe

import (
	"testing"

	"github.com/arvindk/ntap/internal/models"
)

func TestParseHexAddr_IPv4(t *testing.T) {
	// 10.0.0.5:443 -> little-endian IP word 0500000A, port 01BB
	ip, port, err := parseHexAddr("0500000A:01BB")
	if err != nil {
		t.Fatalf("parseHexAddr error: %v", err)
	}
	if ip.String() != "10.0.0.5" {
		t.Errorf("ip = %s, want 10.0.0.5", ip)
	}
	if port != 443 {
		t.Errorf("port = %d, want 443", port)
	}
}

func TestParseHexAddr_Malformed(t *testing.T) {
	if _, _, err := parseHexAddr("not-an-address"); err == nil {
		t.Fatal("expected an error for a malformed address field")
	}
}

func TestTCPStateFromHex(t *testing.T) {
	cases := map[byte]models.SocketState{
		0x01: models.StateEstablished,
		0x0A: models.StateListen,
		0x06: models.StateTimeWait,
		0xFF: models.StateUnknown,
	}
	for raw, want := range cases {
		if got := tcpStateFromHex(raw); got != want {
			t.Errorf("tcpStateFromHex(0x%02X) = %s, want %s", raw, got, want)
		}
	}
}
