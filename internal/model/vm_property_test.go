package model

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genDemand() gopter.Gen {
	return gen.Struct(reflect.TypeOf(Resources{}), map[string]gopter.Gen{
		"CPU": gen.Float64Range(0, 6),
		"Mem": gen.Float64Range(0, 12),
		"IO":  gen.Float64Range(0, 3),
		"BW":  gen.Float64Range(0, 8),
	})
}

// TestProperty_AdmissionCheckedCommitsStayWithinCapacity verifies that for
// any sequence of tasks, committing only those that pass the admission test
// never pushes usage past capacity on any dimension.
func TestProperty_AdmissionCheckedCommitsStayWithinCapacity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("usage never exceeds capacity after guarded commits", prop.ForAll(
		func(demands []Resources) bool {
			vm := &VM{ID: 0, Capacity: Resources{CPU: 8, Mem: 16, IO: 4, BW: 10}}
			for _, demand := range demands {
				task := &Task{ID: "t", Demand: demand}
				if vm.CanAdmit(task) {
					vm.Commit(task)
				}
			}
			return vm.Usage.CPU <= vm.Capacity.CPU &&
				vm.Usage.Mem <= vm.Capacity.Mem &&
				vm.Usage.IO <= vm.Capacity.IO &&
				vm.Usage.BW <= vm.Capacity.BW
		},
		gen.SliceOf(genDemand()),
	))

	properties.Property("load score stays in [0,1] under guarded commits", prop.ForAll(
		func(demands []Resources) bool {
			vm := &VM{ID: 0, Capacity: Resources{CPU: 8, Mem: 16, IO: 4, BW: 10}}
			for _, demand := range demands {
				task := &Task{ID: "t", Demand: demand}
				if vm.CanAdmit(task) {
					vm.Commit(task)
				}
				if score := vm.LoadScore(); score < 0 || score > 1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genDemand()),
	))

	properties.TestingRun(t)
}
