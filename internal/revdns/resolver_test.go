package revdns

import "testing"

func TestIsPrivateOrLoopback(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1": true,
		"10.0.0.5":  true,
		"192.168.1.1": true,
		"169.254.1.1": true,
		"8.8.8.8":    false,
		"not-an-ip":  false,
	}
	for ip, want := range cases {
		if got := isPrivateOrLoopback(ip); got != want {
			t.Errorf("isPrivateOrLoopback(%q) = %v, want %v", ip, got, want)
		}
	}
}
