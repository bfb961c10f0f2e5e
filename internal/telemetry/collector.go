// Package telemetry samples host CPU, memory and GPU utilization for the
// gateway's monitoring surface. It uses gopsutil for cross-platform system
// stats and shells out to nvidia-smi for GPU data.
//
// Every metric source is independently fallible: a failing source yields a
// nil field in the sample, never an error for the whole snapshot.
package telemetry

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Sample holds one point-in-time reading of host resources. Each field is a
// pointer so that unavailable metrics serialize as JSON null.
type Sample struct {
	MemoryPercent  *float64 `json:"memory_percent"`
	MemoryUsedGB   *float64 `json:"memory_used_gb"`
	MemoryTotalGB  *float64 `json:"memory_total_gb"`
	GPUPercent     *float64 `json:"gpu_percent"`
	CPUPercent     *float64 `json:"cpu_percent"`
	CPUClockMHz    *float64 `json:"cpu_clock_mhz"`
	CPUClockMaxMHz *float64 `json:"cpu_clock_max_mhz"`
	GPUClockMHz    *float64 `json:"gpu_clock_mhz"`
	GPUClockMaxMHz *float64 `json:"gpu_clock_max_mhz"`
	Timestamp      int64    `json:"ts"`
}

// Collector gathers system telemetry. CPU utilization is delta-based: the
// collector keeps the previous total/idle jiffy counters and reports the
// usage over the interval since the last call. The baseline is guarded by a
// mutex so concurrent snapshot requests cannot lose an update.
type Collector struct {
	mu          sync.Mutex
	prevTotal   float64
	prevIdle    float64
	initialized bool

	gpu GPUSource
	// injectable for tests
	cpuTimes      func() ([]cpu.TimesStat, error)
	cpuInfo       func() ([]cpu.InfoStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// NewCollector creates a ready-to-use Collector backed by gopsutil and the
// given GPU source. A nil gpu disables GPU metrics (fields stay null).
func NewCollector(gpu GPUSource) *Collector {
	return &Collector{
		gpu:           gpu,
		cpuTimes:      func() ([]cpu.TimesStat, error) { return cpu.Times(false) },
		cpuInfo:       cpu.Info,
		virtualMemory: mem.VirtualMemory,
	}
}

// Sample collects the current snapshot. It never fails: individual sources
// degrade to nil fields.
func (c *Collector) Sample() Sample {
	s := Sample{Timestamp: time.Now().Unix()}

	s.MemoryPercent, s.MemoryUsedGB, s.MemoryTotalGB = c.memoryStats()
	s.CPUPercent = c.cpuPercent()
	s.CPUClockMHz, s.CPUClockMaxMHz = c.cpuClockStats()

	if c.gpu != nil {
		if pct, ok := c.gpu.Utilization(); ok {
			s.GPUPercent = ptr(clampPercent(pct))
		}
		if cur, max, ok := c.gpu.Clocks(); ok {
			s.GPUClockMHz = ptr(cur)
			s.GPUClockMaxMHz = ptr(max)
		}
	}
	return s
}

// memoryStats computes used percent and sizes from total/available.
func (c *Collector) memoryStats() (percent, usedGB, totalGB *float64) {
	vm, err := c.virtualMemory()
	if err != nil || vm == nil || vm.Total == 0 {
		return nil, nil, nil
	}
	total := float64(vm.Total)
	used := total - float64(vm.Available)
	const gb = 1024 * 1024 * 1024
	return ptr(clampPercent(used / total * 100)), ptr(used / gb), ptr(total / gb)
}

// cpuPercent computes utilization from jiffy deltas against the stored
// baseline. The first call seeds the baseline and returns nil. A
// non-positive total delta (counter reset) also returns nil; the baseline
// still advances to the current counters so the next interval is sane.
func (c *Collector) cpuPercent() *float64 {
	times, err := c.cpuTimes()
	if err != nil || len(times) == 0 {
		return nil
	}
	t := times[0]

	idleAll := t.Idle + t.Iowait
	nonIdle := t.User + t.Nice + t.System + t.Irq + t.Softirq + t.Steal
	total := idleAll + nonIdle

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.prevTotal = total
		c.prevIdle = idleAll
		c.initialized = true
		return nil
	}

	totalDelta := total - c.prevTotal
	idleDelta := idleAll - c.prevIdle
	c.prevTotal = total
	c.prevIdle = idleAll

	if totalDelta <= 0 {
		return nil
	}
	return ptr(clampPercent((totalDelta - idleDelta) / totalDelta * 100))
}

// cpuClockStats averages per-core current frequencies, with sysfs fallbacks
// mirroring how tools read cpufreq when /proc/cpuinfo lacks MHz lines.
func (c *Collector) cpuClockStats() (current, max *float64) {
	if infos, err := c.cpuInfo(); err == nil {
		var sum float64
		var n int
		for _, info := range infos {
			if info.Mhz > 0 {
				sum += info.Mhz
				n++
			}
		}
		if n > 0 {
			current = ptr(sum / float64(n))
		}
	}

	if current == nil {
		for _, path := range []string{
			"/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq",
			"/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_cur_freq",
		} {
			if khz, ok := readSysFloat(path); ok {
				current = ptr(khz / 1000)
				break
			}
		}
	}

	if khz, ok := readSysFloat("/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq"); ok {
		max = ptr(khz / 1000)
	} else if khz, ok := readSysFloat("/sys/devices/system/cpu/cpu0/cpufreq/scaling_max_freq"); ok {
		max = ptr(khz / 1000)
	}
	if max == nil && current != nil {
		v := *current
		max = &v
	}
	return current, max
}

func readSysFloat(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func ptr(v float64) *float64 { return &v }
