package socketprobe

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arvindk/ntap/internal/models"
)

// resolveInodePIDs walks /proc/*/fd, matching socket inode symlinks
// ("socket:[12345]") against wanted, and returns the owning PID and
// process name for every inode it could resolve.
func resolveInodePIDs(wanted map[uint64]bool) map[uint64]models.ProcessInfo {
	targets := make(map[string]uint64, len(wanted))
	for inode := range wanted {
		targets[fmt.Sprintf("socket:[%d]", inode)] = inode
	}

	result := make(map[uint64]models.ProcessInfo)
	if len(targets) == 0 {
		return result
	}

	procEntries, err := os.ReadDir("/proc")
	if err != nil {
		return result
	}

	for _, pe := range procEntries {
		if len(result) == len(targets) {
			break
		}
		if !pe.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(pe.Name())
		if err != nil || pid < 1 {
			continue
		}

		fdDir := filepath.Join("/proc", pe.Name(), "fd")
		fdEntries, err := os.ReadDir(fdDir)
		if err != nil {
			continue
		}

		var name string
		for _, fe := range fdEntries {
			link, err := os.Readlink(filepath.Join(fdDir, fe.Name()))
			if err != nil {
				continue
			}
			inode, ok := targets[link]
			if !ok {
				continue
			}
			if name == "" {
				name = readComm(pid)
			}
			result[inode] = models.ProcessInfo{PID: pid, Name: name}
		}
	}
	return result
}

func readComm(pid int) string {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
