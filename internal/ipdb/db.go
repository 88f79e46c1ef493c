// Package ipdb is the immutable, in-memory IP Geo/ASN database: range
// maps from address intervals to country codes and AS numbers, plus
// the small hashmaps and lookup tables that sit alongside them. It is
// built once from on-disk blobs at startup and never mutated again, so
// every lookup method is safe for concurrent use without locking.
package ipdb

import (
	"encoding/binary"
	"log"
	"net"
)

// DB is the loaded database. A nil or partially-populated field just
// means that subcomponent failed to load; lookups degrade gracefully
// rather than failing (spec §4.1: "missing or corrupt blob → the DB
// loads what succeeded").
type DB struct {
	asNames      map[uint32]string
	countryNames map[string]string

	ipv4ASN     rangeMap
	ipv4Country rangeMap
	ipv6ASN     range128Map
	ipv6Country range128Map

	oui        map[string]string // normalized lowercase hex MAC prefix (6 or more digits) -> vendor
	tcpService map[uint16]string
	udpService map[uint16]string
}

// Load builds a DB from the canonical blob filenames inside dir. Every
// table loads independently: one missing or corrupt file is logged and
// skipped, it never aborts the rest of the load.
func Load(dir string) *DB {
	db := &DB{
		asNames:      map[uint32]string{},
		countryNames: map[string]string{},
		oui:          map[string]string{},
		tcpService:   map[uint16]string{},
		udpService:   map[uint16]string{},
	}

	if entries, err := loadASTable(dir); err != nil {
		log.Printf("ipdb: %s unavailable, AS names will be empty: %v", fileAS, err)
	} else {
		for _, e := range entries {
			db.asNames[e.asn] = e.asName
		}
	}

	if entries, err := loadCountryTable(dir); err != nil {
		log.Printf("ipdb: %s unavailable, country names will be empty: %v", fileCountry, err)
	} else {
		for _, e := range entries {
			db.countryNames[e.code] = e.name
		}
	}

	if entries, err := loadIPv4RangeTable(dir, fileIPv4ASN, true); err != nil {
		log.Printf("ipdb: %s unavailable, IPv4 ASN lookups will be empty: %v", fileIPv4ASN, err)
	} else {
		for _, e := range entries {
			db.ipv4ASN.insert(uint64(e.from), uint64(e.to), e.value)
		}
	}

	if entries, err := loadIPv4RangeTable(dir, fileIPv4Country, false); err != nil {
		log.Printf("ipdb: %s unavailable, IPv4 country lookups will be empty: %v", fileIPv4Country, err)
	} else {
		for _, e := range entries {
			db.ipv4Country.insert(uint64(e.from), uint64(e.to), e.value)
		}
	}

	if entries, err := loadIPv6RangeTable(dir, fileIPv6ASN, true); err != nil {
		log.Printf("ipdb: %s unavailable, IPv6 ASN lookups will be empty: %v", fileIPv6ASN, err)
	} else {
		insertIPv6Entries(&db.ipv6ASN, entries)
	}

	if entries, err := loadIPv6RangeTable(dir, fileIPv6Country, false); err != nil {
		log.Printf("ipdb: %s unavailable, IPv6 country lookups will be empty: %v", fileIPv6Country, err)
	} else {
		insertIPv6Entries(&db.ipv6Country, entries)
	}

	if entries, err := loadOUITable(dir); err != nil {
		log.Printf("ipdb: %s unavailable, vendor lookups will be empty: %v", fileOUI, err)
	} else {
		for _, e := range entries {
			db.oui[normalizeMACPrefix(e.macPrefix)] = e.vendorName
		}
	}

	if entries, err := loadServiceTable(dir, fileTCPService); err != nil {
		log.Printf("ipdb: %s unavailable, TCP service names will be empty: %v", fileTCPService, err)
	} else {
		for _, e := range entries {
			db.tcpService[e.port] = e.name
		}
	}

	if entries, err := loadServiceTable(dir, fileUDPService); err != nil {
		log.Printf("ipdb: %s unavailable, UDP service names will be empty: %v", fileUDPService, err)
	} else {
		for _, e := range entries {
			db.udpService[e.port] = e.name
		}
	}

	return db
}

func insertIPv6Entries(m *range128Map, entries []ipv6RangeEntry) {
	for _, e := range entries {
		m.insert(key128{hi: e.from[0], lo: e.from[1]}, key128{hi: e.to[0], lo: e.to[1]}, e.value)
	}
}

func normalizeMACPrefix(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
			out = append(out, c)
		case c >= 'A' && c <= 'F':
			out = append(out, c-'A'+'a')
		}
	}
	return string(out)
}

func ipv4ToUint(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}

func ipv6ToKey(ip net.IP) (key128, bool) {
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return key128{}, false
	}
	return key128{
		hi: binary.BigEndian.Uint64(v6[0:8]),
		lo: binary.BigEndian.Uint64(v6[8:16]),
	}, true
}

// LookupIPv4 resolves country/AS enrichment for an IPv4 address.
func (db *DB) LookupIPv4(ip net.IP) (Result, bool) {
	addr, ok := ipv4ToUint(ip)
	if !ok {
		return Result{}, false
	}
	countryVal, countryOK := db.ipv4Country.lookup(uint64(addr))
	asnVal, asnOK := db.ipv4ASN.lookup(uint64(addr))
	res := db.resultFor(countryVal, countryOK, asnVal, asnOK)
	if res.Absent() {
		return Result{}, false
	}
	return res, true
}

// LookupIPv6 resolves country/AS enrichment for an IPv6 address.
func (db *DB) LookupIPv6(ip net.IP) (Result, bool) {
	key, ok := ipv6ToKey(ip)
	if !ok {
		return Result{}, false
	}
	countryVal, countryOK := db.ipv6Country.lookup(key)
	asnVal, asnOK := db.ipv6ASN.lookup(key)
	res := db.resultFor(countryVal, countryOK, asnVal, asnOK)
	if res.Absent() {
		return Result{}, false
	}
	return res, true
}

func (db *DB) resultFor(countryVal interface{}, countryOK bool, asnVal interface{}, asnOK bool) Result {
	var res Result
	if countryOK {
		code, _ := countryVal.(string)
		res.CountryCode = code
		res.CountryName = db.countryNames[code]
	}
	if asnOK {
		n, _ := asnVal.(uint32)
		res.ASN = n
		res.ASName = db.asNames[n]
	}
	return res
}

// LookupVendor resolves a MAC address's OUI vendor name, trying
// successively shorter prefixes (a few blobs key on /28 or /36 bit
// boundaries rather than the classic /24 OUI), or "" if unknown.
func (db *DB) LookupVendor(mac net.HardwareAddr) string {
	if len(mac) < 3 {
		return ""
	}
	full := normalizeMACPrefix(mac.String())
	for length := len(full); length >= 6; length-- {
		if v, ok := db.oui[full[:length]]; ok {
			return v
		}
	}
	return ""
}

// LookupTCPService resolves a well-known TCP port to a service name.
func (db *DB) LookupTCPService(port uint16) (string, bool) {
	name, ok := db.tcpService[port]
	return name, ok
}

// LookupUDPService resolves a well-known UDP port to a service name.
func (db *DB) LookupUDPService(port uint16) (string, bool) {
	name, ok := db.udpService[port]
	return name, ok
}
