// Package engine wires together the capture pipeline, the socket
// prober, the reverse-DNS resolver and the shared hub into one running
// process: the top-level orchestrator spec §5 describes as "per-
// interface Packet Source -> Flow Ingester -> Shared Netstat State
// <- Socket Prober, Reverse-DNS Resolver".
package engine

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/arvindk/ntap/internal/capture"
	"github.com/arvindk/ntap/internal/config"
	"github.com/arvindk/ntap/internal/dnscache"
	"github.com/arvindk/ntap/internal/hub"
	"github.com/arvindk/ntap/internal/ifaces"
	"github.com/arvindk/ntap/internal/ipdb"
	"github.com/arvindk/ntap/internal/models"
	"github.com/arvindk/ntap/internal/revdns"
	"github.com/arvindk/ntap/internal/snapshot"
	"github.com/arvindk/ntap/internal/socketprobe"
)

// Engine owns every background thread and the shared state they feed.
type Engine struct {
	cfg    config.Config
	hub    *hub.Hub
	db     *ipdb.DB
	cache  *dnscache.Cache
	view   *snapshot.View
	viewMu sync.Mutex

	captures []*capture.Engine
	opts     models.CaptureOptions
}

// New builds an Engine ready to Run. dbDir is the directory holding the
// IP Geo/ASN blobs; cachePath is the reverse-DNS SQLite cache file.
func New(cfg config.Config, opts models.CaptureOptions, dbDir, cachePath string) (*Engine, error) {
	h := hub.New()
	h.LoadIPDB(ipdb.Load(dbDir))

	cache, err := dnscache.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("engine: dns cache: %w", err)
	}

	targetIfaces, err := resolveInterfaces(cfg.Network.Interfaces)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("engine: resolve interfaces: %w", err)
	}

	allIfaces, err := ifaces.List(true)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("engine: list interfaces: %w", err)
	}
	h.SetLocalIPMap(ifaces.LocalIPMap(allIfaces))

	if def, err := ifaces.Default(); err == nil {
		h.SetInterface(def.Name)
	}

	captures := make([]*capture.Engine, 0, len(targetIfaces))
	for _, name := range targetIfaces {
		ifIndex := 0
		if netIf, err := net.InterfaceByName(name); err == nil {
			ifIndex = netIf.Index
		}
		ce, err := capture.New(capture.DefaultConfig(name), ifIndex, opts)
		if err != nil {
			log.Printf("engine: %s: capture init failed, skipping: %v", name, err)
			continue
		}
		captures = append(captures, ce)
	}
	if len(captures) == 0 {
		cache.Close()
		return nil, fmt.Errorf("engine: no capturable interfaces")
	}

	return &Engine{
		cfg:      cfg,
		hub:      h,
		db:       h.IPDB(),
		cache:    cache,
		view:     snapshot.New(),
		captures: captures,
		opts:     opts,
	}, nil
}

// resolveInterfaces expands an empty configured interfaces list to
// every usable (up, non-loopback) interface, matching the original
// tool's "if empty, all interfaces will be used" behavior.
func resolveInterfaces(configured []string) ([]string, error) {
	if len(configured) > 0 {
		return configured, nil
	}
	ifs, err := ifaces.List(false)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ifs))
	for _, iface := range ifs {
		if iface.IsUp {
			names = append(names, iface.Name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("ifaces: no usable interfaces found")
	}
	return names, nil
}

// Run starts every background thread and blocks until ctx is canceled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, ce := range e.captures {
		ce := ce
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer ce.Close()
			if err := ce.Run(ctx, e.hub.Update); err != nil && ctx.Err() == nil {
				log.Printf("engine: capture loop exited: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		socketprobe.Run(ctx, e.hub, e.localIPMapSnapshot)
	}()

	if e.cfg.Network.ReverseDNS {
		resolver := revdns.New("")
		wg.Add(1)
		go func() {
			defer wg.Done()
			revdns.Run(ctx, resolver, e.hub, e.cache, nowUnix)
		}()
	}

	tickRate := time.Duration(e.cfg.Display.TickRateMs) * time.Millisecond
	if tickRate <= 0 {
		tickRate = snapshot.DefaultTickRate
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.runSnapshotter(ctx, tickRate)
	}()

	<-ctx.Done()
	wg.Wait()
	e.cache.Close()
}

func (e *Engine) runSnapshotter(ctx context.Context, tickRate time.Duration) {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := e.hub.GetSnapshotAndResetData()
			e.viewMu.Lock()
			e.view.Merge(snap, tickRate)
			e.viewMu.Unlock()
		}
	}
}

func (e *Engine) localIPMapSnapshot() map[string]string {
	return e.hub.LocalIPMap()
}

// Overview returns the current one-shot global summary.
func (e *Engine) Overview() snapshot.Overview {
	e.viewMu.Lock()
	defer e.viewMu.Unlock()
	return e.view.BuildOverview(e.db)
}

func nowUnix() int64 { return time.Now().Unix() }
