// Command ntap is the one-shot CLI report: it wires the engine,
// captures for a fixed window, and prints the resulting overview once
// (spec §6: "stat" subcommand, kept minimal — CLI argument parsing and
// display formatting are out-of-scope collaborators).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/arvindk/ntap/internal/config"
	"github.com/arvindk/ntap/internal/engine"
	"github.com/arvindk/ntap/internal/models"
	"github.com/arvindk/ntap/internal/snapshot"
)

func main() {
	var (
		ifaceFlag    = flag.String("i", "", "comma-separated interfaces to capture (default: every up, non-loopback interface)")
		protoFlag    = flag.String("P", "", "comma-separated L4 protocols to match (TCP,UDP,ICMP,ICMPv6)")
		ipFlag       = flag.String("a", "", "comma-separated IPs to match (source or dest)")
		portFlag     = flag.String("p", "", "comma-separated ports to match (source or dest)")
		durationFlag = flag.Duration("duration", 5*time.Second, "how long to capture before reporting")
	)
	flag.Parse()

	cfgPath, err := config.Path()
	if err != nil {
		log.Fatalf("ntap: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("ntap: %v", err)
	}
	if *ifaceFlag != "" {
		cfg.Network.Interfaces = splitCSV(*ifaceFlag)
	}

	opts := models.CaptureOptions{
		Protocols: protocolsFromCSV(*protoFlag),
		SrcIPs:    splitCSV(*ipFlag),
		DstIPs:    splitCSV(*ipFlag),
		SrcPorts:  portsFromCSV(*portFlag),
		DstPorts:  portsFromCSV(*portFlag),
	}

	dbDir, err := config.Dir()
	if err != nil {
		log.Fatalf("ntap: %v", err)
	}
	cachePath := filepath.Join(dbDir, "reverse-dns.db")

	eng, err := engine.New(cfg, opts, dbDir, cachePath)
	if err != nil {
		log.Fatalf("ntap: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *durationFlag)
	defer cancel()
	eng.Run(ctx)

	printOverview(eng.Overview())
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func protocolsFromCSV(s string) []models.L4Protocol {
	var out []models.L4Protocol
	for _, p := range splitCSV(s) {
		proto := models.L4Protocol(strings.ToUpper(p))
		if strings.EqualFold(p, string(models.L4ICMPv6)) {
			proto = models.L4ICMPv6
		}
		out = append(out, proto)
	}
	return out
}

func portsFromCSV(s string) []uint16 {
	var out []uint16
	for _, p := range splitCSV(s) {
		var v uint16
		if _, err := fmt.Sscanf(p, "%d", &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func printOverview(ov snapshot.Overview) {
	fmt.Printf("total: %d packets sent, %d received, %d bytes sent, %d bytes received\n",
		ov.Traffic.PacketSent, ov.Traffic.PacketReceived, ov.Traffic.BytesSent, ov.Traffic.BytesReceived)

	fmt.Println("\ntop remote hosts:")
	for _, row := range ov.RemoteHosts {
		fmt.Printf("  %-16s %10d bytes  %s %s\n", row.IPAddr, row.Ranking, row.Info.Hostname, row.Info.CountryCode)
	}

	fmt.Println("\ntop processes:")
	for _, row := range ov.Processes {
		fmt.Printf("  pid=%-8d %-20s %10d bytes\n", row.PID, row.Name, row.Traffic.TotalBytes())
	}

	fmt.Println("\ntop connections:")
	for _, row := range ov.Connections {
		state := ""
		if row.InferredState != models.StateUnknown {
			state = " [" + row.InferredState.String() + "]"
		}
		fmt.Printf("  %s %s:%d -> %s:%d  %10d bytes%s\n",
			row.Key.Protocol, row.Key.LocalIP, row.Key.LocalPort, row.Key.RemoteIP, row.Key.RemotePort, row.Traffic.TotalBytes(), state)
	}

	fmt.Println("\ntop application protocols:")
	for _, row := range ov.AppProtocols {
		fmt.Printf("  %-12s %10d bytes\n", row.Name, row.Traffic.TotalBytes())
	}
}
