package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthResponse is the health check payload
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// SystemStatusResponse reports host and database health
type SystemStatusResponse struct {
	StockCount    int     `json:"stock_count"`
	SnapshotCount int     `json:"snapshot_count"`
	LastScan      string  `json:"last_scan,omitempty"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	DatabaseMB    float64 `json:"database_mb"`
}

// handleHealth returns basic liveness information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Version: "1.0",
	})
}

// handleSystemStatus returns host resource usage and database counters
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	s.log.Debug().Msg("Getting system status")

	response := SystemStatusResponse{}

	err := s.db.Conn().QueryRow("SELECT COUNT(*) FROM stocks").Scan(&response.StockCount)
	if err != nil && err != sql.ErrNoRows {
		s.log.Error().Err(err).Msg("Failed to count stocks")
	}

	err = s.db.Conn().QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&response.SnapshotCount)
	if err != nil && err != sql.ErrNoRows {
		s.log.Error().Err(err).Msg("Failed to count snapshots")
	}

	var lastScan sql.NullString
	err = s.db.Conn().QueryRow("SELECT MAX(created_at) FROM scans").Scan(&lastScan)
	if err != nil && err != sql.ErrNoRows {
		s.log.Error().Err(err).Msg("Failed to query last scan")
	}
	if lastScan.Valid {
		response.LastScan = lastScan.String
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		response.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		response.MemoryPercent = vm.UsedPercent
	}
	if usage, err := disk.Usage("/"); err == nil {
		response.DiskPercent = usage.UsedPercent
	}

	if info, err := os.Stat(s.cfg.DatabasePath); err == nil {
		response.DatabaseMB = float64(info.Size()) / 1024 / 1024
	}

	s.writeJSON(w, response)
}

// handleTriggerScan runs the nightly scan job immediately
// POST /api/scan
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if s.scanJob == nil || s.sched == nil {
		s.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Scan job not registered",
		})
		return
	}

	s.log.Info().Msg("Manual scan triggered")

	// Scans take minutes, run detached from the request.
	go func() {
		if err := s.sched.RunNow(s.scanJob); err != nil {
			s.log.Error().Err(err).Msg("Manual scan failed")
		}
	}()

	s.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Scan started",
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
