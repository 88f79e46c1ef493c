// Package socketprobe enumerates local TCP/UDP sockets from /proc and
// resolves their owning process by walking /proc/*/fd, grounding the
// Socket/Process Prober in the same /proc parsing technique a system
// monitor uses to watch connection states.
package socketprobe

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/arvindk/ntap/internal/models"
)

type procEntry struct {
	localIP    net.IP
	localPort  uint16
	remoteIP   net.IP
	remotePort uint16
	state      models.SocketState
	inode      uint64
}

// procNetTCPPaths and procNetUDPPaths cover both address families.
var procNetTCPPaths = []string{"/proc/net/tcp", "/proc/net/tcp6"}
var procNetUDPPaths = []string{"/proc/net/udp", "/proc/net/udp6"}

func readProcNet(path string) ([]procEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []procEntry
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header line
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		localIP, localPort, err := parseHexAddr(fields[1])
		if err != nil {
			continue
		}
		remoteIP, remotePort, err := parseHexAddr(fields[2])
		if err != nil {
			continue
		}
		stateByte, err := hex.DecodeString(fields[3])
		if err != nil || len(stateByte) == 0 {
			continue
		}
		inode, _ := strconv.ParseUint(fields[9], 10, 64)

		entries = append(entries, procEntry{
			localIP:    localIP,
			localPort:  localPort,
			remoteIP:   remoteIP,
			remotePort: remotePort,
			state:      tcpStateFromHex(stateByte[0]),
			inode:      inode,
		})
	}
	return entries, scanner.Err()
}

// parseHexAddr decodes a /proc/net/{tcp,udp}[6] "IP:PORT" field. IPv4
// words and each 32-bit chunk of an IPv6 address are stored in host
// (little-endian on x86/arm) byte order.
func parseHexAddr(field string) (net.IP, uint16, error) {
	parts := strings.SplitN(field, ":", 2)
	if len(parts) != 2 {
		return nil, 0, fmt.Errorf("socketprobe: malformed address field %q", field)
	}
	ipBytes, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, 0, err
	}
	portBytes, err := hex.DecodeString(parts[1])
	if err != nil || len(portBytes) < 2 {
		return nil, 0, fmt.Errorf("socketprobe: malformed port field %q", field)
	}
	port := uint16(portBytes[0])<<8 | uint16(portBytes[1])

	switch len(ipBytes) {
	case 4:
		return net.IPv4(ipBytes[3], ipBytes[2], ipBytes[1], ipBytes[0]), port, nil
	case 16:
		ip := make(net.IP, 16)
		for word := 0; word < 4; word++ {
			ip[word*4+0] = ipBytes[word*4+3]
			ip[word*4+1] = ipBytes[word*4+2]
			ip[word*4+2] = ipBytes[word*4+1]
			ip[word*4+3] = ipBytes[word*4+0]
		}
		return ip, port, nil
	default:
		return nil, 0, fmt.Errorf("socketprobe: unexpected address length %d", len(ipBytes))
	}
}

// tcpStateFromHex maps the /proc/net/tcp state byte to the internal
// enum (spec §4.6).
func tcpStateFromHex(b byte) models.SocketState {
	switch b {
	case 0x01:
		return models.StateEstablished
	case 0x02:
		return models.StateSynSent
	case 0x03:
		return models.StateSynReceived
	case 0x04:
		return models.StateFinWait1
	case 0x05:
		return models.StateFinWait2
	case 0x06:
		return models.StateTimeWait
	case 0x07:
		return models.StateClosed
	case 0x08:
		return models.StateCloseWait
	case 0x09:
		return models.StateLastAck
	case 0x0A:
		return models.StateListen
	case 0x0B:
		return models.StateClosing
	case 0x0C:
		return models.StateDeleteTcb
	default:
		return models.StateUnknown
	}
}
