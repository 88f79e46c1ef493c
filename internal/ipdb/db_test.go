package ipdb

import (
	"net"
	"testing"
)

func buildTestDB() *DB {
	db := &DB{
		asNames:      map[uint32]string{15169: "GOOGLE"},
		countryNames: map[string]string{"US": "United States"},
		oui:          map[string]string{},
		tcpService:   map[uint16]string{},
		udpService:   map[uint16]string{},
	}
	// 8.8.8.0/24 == [134744064, 134744319]
	db.ipv4Country.insert(134744064, 134744319, "US")
	db.ipv4ASN.insert(134744064, 134744319, uint32(15169))
	return db
}

func TestLookupIPv4_WithinRange(t *testing.T) {
	db := buildTestDB()

	res, ok := db.LookupIPv4(net.ParseIP("8.8.8.8"))
	if !ok {
		t.Fatal("expected a result, got absent")
	}
	if res.CountryCode != "US" || res.CountryName != "United States" {
		t.Errorf("country = %+v, want US/United States", res)
	}
	if res.ASN != 15169 || res.ASName != "GOOGLE" {
		t.Errorf("asn = %+v, want 15169/GOOGLE", res)
	}
}

func TestLookupIPv4_OutsideRangeIsAbsent(t *testing.T) {
	db := buildTestDB()

	_, ok := db.LookupIPv4(net.ParseIP("1.1.1.1"))
	if ok {
		t.Fatal("expected absent for IP outside all ranges")
	}
}

func TestLookupIPv6_DisjointRanges(t *testing.T) {
	db := buildTestDB()
	db.ipv6Country.insert(
		key128{hi: 0x2001486000000000, lo: 0},
		key128{hi: 0x2001486000000000, lo: ^uint64(0)},
		"US",
	)

	ip := net.ParseIP("2001:4860:0000:0000:0000:0000:0000:8888")
	res, ok := db.LookupIPv6(ip)
	if !ok {
		t.Fatalf("expected a result for %s", ip)
	}
	if res.CountryCode != "US" {
		t.Errorf("CountryCode = %q, want US", res.CountryCode)
	}

	_, ok = db.LookupIPv6(net.ParseIP("2001:4861::1"))
	if ok {
		t.Fatal("expected absent for address outside the loaded /64")
	}
}

func TestLookupVendor_PrefersLongestMatch(t *testing.T) {
	db := buildTestDB()
	db.oui["001a2b"] = "Short Match Co"
	db.oui["001a2b3c"] = "Long Match Co"

	got := db.LookupVendor(net.HardwareAddr{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e})
	if got != "Long Match Co" {
		t.Errorf("LookupVendor = %q, want longest-prefix match", got)
	}
}

// TestRangeMap_LaterNarrowerOverrideWins exercises spec §9's "last
// inserted wins" requirement for overlapping ranges whose lower bounds
// differ: a wide range, a narrower range nested inside it, then a
// still-wider range that again covers the narrow one. The final insert
// must win at every address it covers, including the ones nearest the
// narrower range's own "from".
func TestRangeMap_LaterNarrowerOverrideWins(t *testing.T) {
	var m rangeMap
	m.insert(100, 200, "A")
	m.insert(150, 160, "B")

	if v, ok := m.lookup(155); !ok || v != "B" {
		t.Fatalf("lookup(155) = %v, %v, want B, true", v, ok)
	}
	if v, ok := m.lookup(120); !ok || v != "A" {
		t.Fatalf("lookup(120) = %v, %v, want A, true", v, ok)
	}

	m.insert(90, 250, "C")

	if v, ok := m.lookup(155); !ok || v != "C" {
		t.Fatalf("after wider override, lookup(155) = %v, %v, want C, true", v, ok)
	}
	if v, ok := m.lookup(120); !ok || v != "C" {
		t.Fatalf("after wider override, lookup(120) = %v, %v, want C, true", v, ok)
	}
	if v, ok := m.lookup(210); !ok || v != "C" {
		t.Fatalf("after wider override, lookup(210) = %v, %v, want C, true", v, ok)
	}
}

func TestRange128Map_LaterNarrowerOverrideWins(t *testing.T) {
	var m range128Map
	m.insert(key128{lo: 100}, key128{lo: 200}, "A")
	m.insert(key128{lo: 150}, key128{lo: 160}, "B")

	if v, ok := m.lookup(key128{lo: 155}); !ok || v != "B" {
		t.Fatalf("lookup(155) = %v, %v, want B, true", v, ok)
	}
	if v, ok := m.lookup(key128{lo: 120}); !ok || v != "A" {
		t.Fatalf("lookup(120) = %v, %v, want A, true", v, ok)
	}

	m.insert(key128{lo: 90}, key128{lo: 250}, "C")

	if v, ok := m.lookup(key128{lo: 155}); !ok || v != "C" {
		t.Fatalf("after wider override, lookup(155) = %v, %v, want C, true", v, ok)
	}
	if v, ok := m.lookup(key128{lo: 120}); !ok || v != "C" {
		t.Fatalf("after wider override, lookup(120) = %v, %v, want C, true", v, ok)
	}
}

func TestLookupVendor_Unknown(t *testing.T) {
	db := buildTestDB()
	if got := db.LookupVendor(net.HardwareAddr{0xff, 0xff, 0xff, 0x00, 0x00, 0x00}); got != "" {
		t.Errorf("LookupVendor = %q, want empty for unknown prefix", got)
	}
}
