package model

// Resources holds one value per resource dimension. Depending on context it
// carries absolute units (capacity, usage, demand) or utilization ratios.
type Resources struct {
	CPU float64 `json:"cpu"`
	Mem float64 `json:"mem"`
	IO  float64 `json:"io"`
	BW  float64 `json:"bw"`
}

// Add returns the per-dimension sum of r and other.
func (r Resources) Add(other Resources) Resources {
	return Resources{
		CPU: r.CPU + other.CPU,
		Mem: r.Mem + other.Mem,
		IO:  r.IO + other.IO,
		BW:  r.BW + other.BW,
	}
}

// Mean returns the arithmetic mean across the four dimensions.
func (r Resources) Mean() float64 {
	return (r.CPU + r.Mem + r.IO + r.BW) / 4
}

// VM is a point-in-time snapshot of a virtual machine's resource state.
// Instances are rebuilt by the caller per request; the scheduler core does
// not own them across requests.
type VM struct {
	ID       int       `json:"id"`
	Capacity Resources `json:"capacity"`
	Usage    Resources `json:"usage"`
	Tasks    []string  `json:"tasks"`
}

// CanAdmit reports whether adding the task's demand keeps usage within
// capacity on every dimension simultaneously.
func (v *VM) CanAdmit(task *Task) bool {
	return v.Usage.CPU+task.Demand.CPU <= v.Capacity.CPU &&
		v.Usage.Mem+task.Demand.Mem <= v.Capacity.Mem &&
		v.Usage.IO+task.Demand.IO <= v.Capacity.IO &&
		v.Usage.BW+task.Demand.BW <= v.Capacity.BW
}

// Commit adds the task's demand to usage and records the assignment.
// There is no rollback; callers must run CanAdmit first.
func (v *VM) Commit(task *Task) {
	v.Usage = v.Usage.Add(task.Demand)
	v.Tasks = append(v.Tasks, task.ID)
}

// Utilization returns the per-dimension usage/capacity ratios.
func (v *VM) Utilization() Resources {
	return Resources{
		CPU: v.Usage.CPU / v.Capacity.CPU,
		Mem: v.Usage.Mem / v.Capacity.Mem,
		IO:  v.Usage.IO / v.Capacity.IO,
		BW:  v.Usage.BW / v.Capacity.BW,
	}
}

// LoadScore returns the mean utilization ratio across the four dimensions,
// in [0,1] as long as commits only follow passing admission tests.
func (v *VM) LoadScore() float64 {
	return v.Utilization().Mean()
}
