package monitoring

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const topProcessCount = 5

// The primary-selection heuristics below pick "first matching, else
// first". They do not model multi-GPU or multi-homed topologies.

// primaryGPU prefers the first non-Intel controller, so a discrete card
// wins over integrated graphics.
func primaryGPU(controllers []GPUController) (GPUController, bool) {
	if len(controllers) == 0 {
		return GPUController{}, false
	}
	for _, c := range controllers {
		if !strings.Contains(strings.ToLower(c.Vendor), "intel") {
			return c, true
		}
	}
	return controllers[0], true
}

// primaryDisk prefers the root mount or the C: drive.
func primaryDisk(filesystems []Filesystem) (Filesystem, bool) {
	if len(filesystems) == 0 {
		return Filesystem{}, false
	}
	for _, fs := range filesystems {
		if fs.Mount == "/" || strings.HasPrefix(fs.FS, "C:") {
			return fs, true
		}
	}
	return filesystems[0], true
}

// primaryInterface prefers the first external interface that is up.
func primaryInterface(stats []NetworkStat) (NetworkStat, bool) {
	if len(stats) == 0 {
		return NetworkStat{}, false
	}
	for _, st := range stats {
		if st.OperState == "up" && !st.Internal {
			return st, true
		}
	}
	return stats[0], true
}

// topProcesses returns the n busiest processes by CPU. Equal CPU values
// keep their input order. The input slice is left untouched.
func topProcesses(procs []ProcessStat, n int) []ProcessEntry {
	sorted := make([]ProcessStat, len(procs))
	copy(sorted, procs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return cpuKey(sorted[i]) > cpuKey(sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	entries := make([]ProcessEntry, 0, len(sorted))
	for _, p := range sorted {
		entries = append(entries, ProcessEntry{
			PID:        p.PID,
			Name:       p.Name,
			CPUPercent: formatPercent(p.CPUPercent),
			MemPercent: formatPercent(p.MemPercent),
		})
	}
	return entries
}

func cpuKey(p ProcessStat) float64 {
	if !isNumber(p.CPUPercent) {
		return 0
	}
	return *p.CPUPercent
}

func formatPercent(v *float64) string {
	if !isNumber(v) {
		return "0.0"
	}
	return strconv.FormatFloat(round1(*v), 'f', 1, 64)
}

func isNumber(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
