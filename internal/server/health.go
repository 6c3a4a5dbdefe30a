package server

import (
	"net/http"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthReport struct {
	Status        string  `json:"status"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedBytes  uint64  `json:"mem_used_bytes"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := healthReport{Status: "ok"}

	if percentages, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(percentages) > 0 {
		report.CPUPercent = percentages[0]
	} else if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu stats")
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		report.MemUsedBytes = vm.Used
		report.MemTotalBytes = vm.Total
	} else {
		s.log.Warn().Err(err).Msg("failed to read memory stats")
	}

	writeJSON(w, http.StatusOK, report)
}
