package scheduler

import "chainsched/internal/model"

// History keeps a fixed-capacity FIFO window of utilization snapshots per
// VM, evicting the oldest snapshot when the window is full.
type History struct {
	window  int
	samples map[int][]model.Resources
}

// NewHistory creates a history tracker holding up to window snapshots per VM.
func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultOptions().HistoryWindow
	}
	return &History{
		window:  window,
		samples: make(map[int][]model.Resources),
	}
}

// Push records one utilization snapshot for the VM.
func (h *History) Push(vmID int, usage model.Resources) {
	s := append(h.samples[vmID], usage)
	if len(s) > h.window {
		s = s[1:]
	}
	h.samples[vmID] = s
}

// Mean returns the mean, over the VM's window, of each snapshot's own
// four-dimension mean. Zero when the window is empty.
func (h *History) Mean(vmID int) float64 {
	s := h.samples[vmID]
	if len(s) == 0 {
		return 0
	}
	var total float64
	for _, usage := range s {
		total += usage.Mean()
	}
	return total / float64(len(s))
}

// Len reports how many snapshots the VM's window currently holds.
func (h *History) Len(vmID int) int {
	return len(h.samples[vmID])
}
