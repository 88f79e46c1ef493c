// Package dnscache persists resolved (and negative) reverse-DNS
// results across runs, so a restart doesn't immediately re-query every
// remote host it already has an answer for. The reverse_dns_map itself
// lives in memory for hot lookups; this package is its durable
// backing store, adapted from the teacher's SQLite storage layer.
package dnscache

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS reverse_dns (
	ip TEXT PRIMARY KEY,
	hostname TEXT NOT NULL,
	resolved_at INTEGER NOT NULL
);
`

// Cache wraps a SQLite-backed hostname cache. In-memory reads are
// served from mem under mu; writes go to both mem and the database.
type Cache struct {
	db *sql.DB

	mu  sync.RWMutex
	mem map[string]string // IP -> hostname, "" means a cached negative result
}

// Open opens (creating if necessary) the cache database at path and
// loads its contents into memory.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("dnscache: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("dnscache: ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("dnscache: migrate: %w", err)
	}

	c := &Cache{db: db, mem: map[string]string{}}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("dnscache: load: %w", err)
	}
	return c, nil
}

func (c *Cache) load() error {
	rows, err := c.db.Query(`SELECT ip, hostname FROM reverse_dns`)
	if err != nil {
		return err
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var ip, hostname string
		if err := rows.Scan(&ip, &hostname); err != nil {
			return err
		}
		c.mem[ip] = hostname
	}
	return rows.Err()
}

// Has reports whether ip already has a cached result, positive or
// negative (spec §4.7 step 1: "compute the set of remote IPs not yet
// in reverse_dns_map").
func (c *Cache) Has(ip string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.mem[ip]
	return ok
}

// Get returns the cached hostname for ip, which may be "" for a
// negative result.
func (c *Cache) Get(ip string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.mem[ip]
	return v, ok
}

// PutBatch records a batch of resolver results, including empty
// strings for negative results so they aren't re-queried immediately
// (spec §7: "DNS timeout / negative answer ... still record in
// reverse_dns_map").
func (c *Cache) PutBatch(results map[string]string, resolvedAt int64) error {
	c.mu.Lock()
	for ip, hostname := range results {
		c.mem[ip] = hostname
	}
	c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("dnscache: begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO reverse_dns (ip, hostname, resolved_at) VALUES (?, ?, ?)
		ON CONFLICT(ip) DO UPDATE SET hostname = excluded.hostname, resolved_at = excluded.resolved_at
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("dnscache: prepare: %w", err)
	}
	defer stmt.Close()

	for ip, hostname := range results {
		if _, err := stmt.Exec(ip, hostname, resolvedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("dnscache: exec: %w", err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
