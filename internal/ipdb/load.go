package ipdb

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Canonical blob filenames under the config directory (spec §6).
const (
	fileAS           = "as.bin"
	fileCountry      = "country.bin"
	fileIPv4ASN      = "ipv4-asn.bin"
	fileIPv6ASN      = "ipv6-asn.bin"
	fileIPv4Country  = "ipv4-country.bin"
	fileIPv6Country  = "ipv6-country.bin"
	fileOUI          = "oui.bin"
	fileTCPService   = "tcp-service.bin"
	fileUDPService   = "udp-service.bin"
)

// Wire format: a blob is a 4-byte big-endian entry count followed by
// that many fixed-layout records. Variable-length utf8 fields are
// themselves length-prefixed (4-byte big-endian byte count, no
// trailing NUL). Every multi-byte integer is big-endian, matching the
// address encoding spec §4.1 calls for.
func readCount(r *bufio.Reader) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func readString(r *bufio.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func openBlob(dir, name string) (*bufio.Reader, *os.File, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewReader(f), f, nil
}

func loadASTable(dir string) ([]asEntry, error) {
	r, f, err := openBlob(dir, fileAS)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", fileAS, err)
	}
	out := make([]asEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var asn uint32
		if err := binary.Read(r, binary.BigEndian, &asn); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileAS, i, err)
		}
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileAS, i, err)
		}
		out = append(out, asEntry{asn: asn, asName: name})
	}
	return out, nil
}

func loadCountryTable(dir string) ([]countryEntry, error) {
	r, f, err := openBlob(dir, fileCountry)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", fileCountry, err)
	}
	out := make([]countryEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		code, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileCountry, i, err)
		}
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileCountry, i, err)
		}
		out = append(out, countryEntry{code: code, name: name})
	}
	return out, nil
}

// loadIPv4RangeTable reads either an ASN or a country table: asColumn
// selects which trailing field each record carries.
func loadIPv4RangeTable(dir, name string, asColumn bool) ([]ipv4RangeEntry, error) {
	r, f, err := openBlob(dir, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", name, err)
	}
	out := make([]ipv4RangeEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var from, to uint32
		if err := binary.Read(r, binary.BigEndian, &from); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &to); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		var value interface{}
		if asColumn {
			var asn uint32
			if err := binary.Read(r, binary.BigEndian, &asn); err != nil {
				return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
			}
			value = asn
		} else {
			code, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
			}
			value = code
		}
		out = append(out, ipv4RangeEntry{from: from, to: to, value: value})
	}
	return out, nil
}

func loadIPv6RangeTable(dir, name string, asColumn bool) ([]ipv6RangeEntry, error) {
	r, f, err := openBlob(dir, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", name, err)
	}
	out := make([]ipv6RangeEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var from, to [2]uint64
		if err := binary.Read(r, binary.BigEndian, &from); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		if err := binary.Read(r, binary.BigEndian, &to); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		var value interface{}
		if asColumn {
			var asn uint32
			if err := binary.Read(r, binary.BigEndian, &asn); err != nil {
				return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
			}
			value = asn
		} else {
			code, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
			}
			value = code
		}
		out = append(out, ipv6RangeEntry{from: from, to: to, value: value})
	}
	return out, nil
}

func loadOUITable(dir string) ([]ouiEntry, error) {
	r, f, err := openBlob(dir, fileOUI)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", fileOUI, err)
	}
	out := make([]ouiEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		prefix, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileOUI, i, err)
		}
		vendor, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", fileOUI, i, err)
		}
		out = append(out, ouiEntry{macPrefix: prefix, vendorName: vendor})
	}
	return out, nil
}

func loadServiceTable(dir, name string) ([]servicePortEntry, error) {
	r, f, err := openBlob(dir, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := readCount(r)
	if err != nil {
		return nil, fmt.Errorf("ipdb: %s: %w", name, err)
	}
	out := make([]servicePortEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var port uint16
		if err := binary.Read(r, binary.BigEndian, &port); err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		svcName, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("ipdb: %s: entry %d: %w", name, i, err)
		}
		out = append(out, servicePortEntry{port: port, name: svcName})
	}
	return out, nil
}
