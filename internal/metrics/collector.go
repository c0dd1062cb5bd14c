// Package metrics samples system and loader metrics on a ticker and logs
// them.
package metrics

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Source exposes the loader's running totals. *store.Store implements it.
type Source interface {
	Totals() (statements, rows int64)
}

// Snapshot is one sample.
type Snapshot struct {
	Timestamp time.Time

	CPUPercent        float64 // system-wide, 0-100
	ProcessCPUPercent float64 // per core, may exceed 100
	ProcessRSSMB      float64
	MemoryPercent     float64
	DiskWriteMBps     float64

	Statements int64
	Rows       int64
	RowsPerSec float64 // since the previous sample
}

// Collector periodically samples metrics and logs them.
type Collector struct {
	interval time.Duration
	logger   *zap.Logger
	source   Source
	proc     *process.Process

	// previous sample, for rates
	lastTime      time.Time
	lastRows      int64
	lastDiskWrite uint64

	mu   sync.RWMutex
	last *Snapshot
}

// NewCollector creates a collector. source may be nil.
func NewCollector(interval time.Duration, logger *zap.Logger, source Source) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		source:   source,
		proc:     proc,
	}
}

// Start samples until ctx is cancelled. It always returns nil so it can be
// run directly in an errgroup.
func (c *Collector) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// baseline for the rates
	c.Sample()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return nil
		case <-ticker.C:
			s := c.Sample()
			c.log(s)
		}
	}
}

// Last returns the most recent sample, or nil before the first one.
func (c *Collector) Last() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Sample takes one sample and stores it as the latest.
func (c *Collector) Sample() *Snapshot {
	now := time.Now()
	s := &Snapshot{Timestamp: now}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			s.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSSMB = float64(info.RSS) / (1024 * 1024)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = vm.UsedPercent
	}

	written := diskBytesWritten()
	if c.source != nil {
		s.Statements, s.Rows = c.source.Totals()
	}

	if !c.lastTime.IsZero() {
		elapsed := now.Sub(c.lastTime).Seconds()
		if elapsed > 0 {
			s.RowsPerSec = float64(s.Rows-c.lastRows) / elapsed
			if written >= c.lastDiskWrite {
				s.DiskWriteMBps = float64(written-c.lastDiskWrite) / elapsed / (1024 * 1024)
			}
		}
	}
	c.lastTime = now
	c.lastRows = s.Rows
	c.lastDiskWrite = written

	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
	return s
}

func (c *Collector) log(s *Snapshot) {
	fields := []zap.Field{
		zap.Float64("sys_cpu", round1(s.CPUPercent)),
		zap.Float64("proc_cpu", round1(s.ProcessCPUPercent)),
		zap.String("rss", fmt.Sprintf("%.1f MB", s.ProcessRSSMB)),
		zap.Float64("mem_pct", round1(s.MemoryPercent)),
		zap.String("disk_w", fmt.Sprintf("%.1f MB/s", s.DiskWriteMBps)),
	}
	if c.source != nil {
		fields = append(fields,
			zap.Int64("statements", s.Statements),
			zap.Int64("rows", s.Rows),
			zap.String("rows_rate", fmt.Sprintf("%.0f/s", s.RowsPerSec)))
	}
	c.logger.Info("Metrics", fields...)
}

// diskBytesWritten sums written bytes over all disks; 0 if unavailable.
func diskBytesWritten() uint64 {
	counters, err := disk.IOCounters()
	if err != nil {
		return 0
	}
	var total uint64
	for _, counter := range counters {
		total += counter.WriteBytes
	}
	return total
}

func round1(f float64) float64 {
	return float64(int64(f*10)) / 10
}
