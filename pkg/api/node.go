package api

import (
	"net/http"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

type nodeInfo struct {
	Hostname          string  `json:"hostname"`
	OS                string  `json:"os"`
	Arch              string  `json:"arch"`
	UptimeSeconds     uint64  `json:"uptime_seconds"`
	CPUCount          int     `json:"cpu_count"`
	MemoryTotalGiB    float64 `json:"memory_total_gib"`
	MemoryAvailGiB    float64 `json:"memory_available_gib"`
	LoadAverageOne    float64 `json:"load_average_one"`
	LoadAverageFive   float64 `json:"load_average_five"`
	LoadAverageFifteen float64 `json:"load_average_fifteen"`
}

const gib = 1024 * 1024 * 1024

// handleNodeGet reports a snapshot of the host ring is running on: OS,
// uptime, CPU count, memory and load average. Every field is best-effort;
// a metric gopsutil can't read on this platform is left at its zero value.
func (s *Server) handleNodeGet(w http.ResponseWriter, r *http.Request) {
	info := nodeInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if hi, err := host.Info(); err == nil {
		info.Hostname = hi.Hostname
		info.UptimeSeconds = hi.Uptime
	}

	if n, err := cpu.Counts(true); err == nil {
		info.CPUCount = n
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotalGiB = float64(vm.Total) / gib
		info.MemoryAvailGiB = float64(vm.Available) / gib
	}

	if avg, err := load.Avg(); err == nil {
		info.LoadAverageOne = avg.Load1
		info.LoadAverageFive = avg.Load5
		info.LoadAverageFifteen = avg.Load15
	}

	writeJSON(w, http.StatusOK, info)
}
