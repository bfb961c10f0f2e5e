package telemetry

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// GPUSource abstracts GPU metric queries so tests can inject a fake and
// hosts without a GPU management tool degrade to null fields.
type GPUSource interface {
	// Utilization returns the maximum utilization percent across devices.
	Utilization() (float64, bool)
	// Clocks returns the current and max graphics clock in MHz of the
	// first device.
	Clocks() (current, max float64, ok bool)
}

// gpuQueryTimeout bounds every nvidia-smi subprocess call.
const gpuQueryTimeout = 2 * time.Second

// NvidiaSMI queries GPU metrics by shelling out to nvidia-smi.
type NvidiaSMI struct{}

// NewNvidiaSMI returns the nvidia-smi backed GPU source.
func NewNvidiaSMI() *NvidiaSMI { return &NvidiaSMI{} }

func (n *NvidiaSMI) query(fields string) ([]string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), gpuQueryTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu="+fields,
		"--format=csv,noheader,nounits",
	).Output()
	if err != nil {
		return nil, false
	}

	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, len(lines) > 0
}

// Utilization returns the max utilization.gpu value across all devices.
func (n *NvidiaSMI) Utilization() (float64, bool) {
	lines, ok := n.query("utilization.gpu")
	if !ok {
		return 0, false
	}
	var max float64
	found := false
	for _, line := range lines {
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		if !found || v > max {
			max = v
		}
		found = true
	}
	return max, found
}

// Clocks returns clocks.current.graphics and clocks.max.graphics of the
// first device.
func (n *NvidiaSMI) Clocks() (current, max float64, ok bool) {
	lines, lok := n.query("clocks.current.graphics,clocks.max.graphics")
	if !lok {
		return 0, 0, false
	}
	parts := strings.Split(lines[0], ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	current, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	max, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return current, max, true
}
