package stats

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// RuntimeStats holds the samples taken at each pipeline stage boundary.
type RuntimeStats struct {
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	TotalElapsed time.Duration `json:"total_elapsed_ns"`
	Stages       []StageSample `json:"stages"`
	Summary      StatsSummary  `json:"summary"`
}

// StageSample is the process state right after a stage finished.
type StageSample struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`

	HeapAlloc       uint64  `json:"heap_alloc"`
	TotalAlloc      uint64  `json:"total_alloc"`
	Sys             uint64  `json:"sys"`
	NumGC           uint32  `json:"num_gc"`
	ProcessRSSBytes uint64  `json:"process_rss_bytes"`
	CPUPercent      float64 `json:"cpu_percent"`
}

type StatsSummary struct {
	PeakHeapAlloc  uint64  `json:"peak_heap_alloc"`
	PeakProcessRSS uint64  `json:"peak_process_rss"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	SlowestStage   string  `json:"slowest_stage"`
	TotalGCCycles  uint32  `json:"total_gc_cycles"`
}

// Collector samples memory and CPU usage when told a stage is done.
// A nil *Collector is valid and records nothing.
type Collector struct {
	stats    RuntimeStats
	lastMark time.Time
	proc     *process.Process
}

func NewCollector() (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}

	now := time.Now()
	return &Collector{
		stats:    RuntimeStats{StartTime: now},
		lastMark: now,
		proc:     proc,
	}, nil
}

// Mark records a sample for the stage that just finished.
func (c *Collector) Mark(stage string) {
	if c == nil {
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	now := time.Now()
	sample := StageSample{
		Stage:      stage,
		Duration:   now.Sub(c.lastMark),
		HeapAlloc:  memStats.HeapAlloc,
		TotalAlloc: memStats.TotalAlloc,
		Sys:        memStats.Sys,
		NumGC:      memStats.NumGC,
	}
	c.lastMark = now

	if memInfo, err := c.proc.MemoryInfo(); err == nil && memInfo != nil {
		sample.ProcessRSSBytes = memInfo.RSS
	}
	if cpuPercent, err := c.proc.CPUPercent(); err == nil {
		sample.CPUPercent = cpuPercent
	}

	c.stats.Stages = append(c.stats.Stages, sample)
}

// Stop returns the collected stats with the summary filled in.
func (c *Collector) Stop() RuntimeStats {
	if c == nil {
		return RuntimeStats{}
	}

	c.stats.EndTime = time.Now()
	c.stats.TotalElapsed = c.stats.EndTime.Sub(c.stats.StartTime)

	var slowest time.Duration
	summary := StatsSummary{}
	for _, s := range c.stats.Stages {
		summary.PeakHeapAlloc = max(summary.PeakHeapAlloc, s.HeapAlloc)
		summary.PeakProcessRSS = max(summary.PeakProcessRSS, s.ProcessRSSBytes)
		summary.PeakCPUPercent = max(summary.PeakCPUPercent, s.CPUPercent)
		summary.TotalGCCycles = max(summary.TotalGCCycles, s.NumGC)
		if s.Duration > slowest {
			slowest = s.Duration
			summary.SlowestStage = s.Stage
		}
	}
	c.stats.Summary = summary

	return c.stats
}

// SaveToFile writes a human-readable report of the stats.
func (stats *RuntimeStats) SaveToFile(filename string) error {
	var sb strings.Builder

	sb.WriteString("RUNTIME STATISTICS\n")
	sb.WriteString("--------------------------------------------------------------------------------\n")
	fmt.Fprintf(&sb, "  Start Time:      %s\n", stats.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  End Time:        %s\n", stats.EndTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, "  Total Duration:  %s\n", stats.TotalElapsed)
	fmt.Fprintf(&sb, "  Slowest Stage:   %s\n", stats.Summary.SlowestStage)
	fmt.Fprintf(&sb, "  Peak Heap:       %s\n", humanize.Bytes(stats.Summary.PeakHeapAlloc))
	fmt.Fprintf(&sb, "  Peak RSS:        %s\n", humanize.Bytes(stats.Summary.PeakProcessRSS))
	fmt.Fprintf(&sb, "  Peak CPU:        %.2f%%\n", stats.Summary.PeakCPUPercent)
	fmt.Fprintf(&sb, "  GC Cycles:       %d\n\n", stats.Summary.TotalGCCycles)

	fmt.Fprintf(&sb, "%-12s %-14s %-14s %-14s %-10s\n", "Stage", "Duration", "Heap Alloc", "Process RSS", "CPU %")
	fmt.Fprintf(&sb, "%-12s %-14s %-14s %-14s %-10s\n", "-----", "--------", "----------", "-----------", "-----")
	for _, s := range stats.Stages {
		fmt.Fprintf(&sb, "%-12s %-14s %-14s %-14s %-10.1f\n",
			s.Stage,
			s.Duration.Round(time.Millisecond),
			humanize.Bytes(s.HeapAlloc),
			humanize.Bytes(s.ProcessRSSBytes),
			s.CPUPercent,
		)
	}

	if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
