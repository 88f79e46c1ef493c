package hub

// RemoteHostIPs returns every remote IP currently tracked, for the DNS
// resolver to diff against its already-resolved set (spec §4.7 step 1).
func (h *Hub) RemoteHostIPs() []string {
	h.remoteHostsMu.Lock()
	defer h.remoteHostsMu.Unlock()

	ips := make([]string, 0, len(h.remoteHosts))
	for ip := range h.remoteHosts {
		ips = append(ips, ip)
	}
	return ips
}

// SetHostname writes a resolved hostname onto the remote-host record
// for ip, if that record still exists and doesn't already have one
// (sticky metadata policy, spec §4.5). A vanished record (reaped or
// never created) is silently ignored — the resolver doesn't
// resurrect entries.
func (h *Hub) SetHostname(ip, hostname string) {
	if hostname == "" {
		return
	}
	h.remoteHostsMu.Lock()
	defer h.remoteHostsMu.Unlock()

	if rh, ok := h.remoteHosts[ip]; ok && rh.Hostname == "" {
		rh.Hostname = hostname
	}
}
