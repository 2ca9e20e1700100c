// Package device decides, once per process, where and at which precision
// inference runs. The heuristic itself (Select, ChooseActive, HalfPrecision)
// is pure; probing the hardware is delegated to a Prober.
package device

import (
	"fmt"
	"math"
	"regexp"
)

// Kind is the class of compute device.
type Kind string

const (
	KindCPU         Kind = "cpu"
	KindAccelerator Kind = "cuda"
)

// Precision is the floating point width used for inference.
type Precision string

const (
	FP16 Precision = "fp16"
	FP32 Precision = "fp32"
)

// Thresholds for accelerator eligibility.
const (
	minCapability      = 5.3
	legacyCapability   = 6.1
	turingCapability   = 7.5
	minMemoryGiB       = 4.0
	memoryAllowanceGiB = 0.4
)

// Consumer Turing parts (GTX 16xx) report capability 7.5 but have crippled
// half precision throughput.
var lowPrecisionFamily = regexp.MustCompile(`16\d{2}`)

const gib = 1 << 30

// Info is the raw description of one accelerator as reported by a Prober.
type Info struct {
	Index       int
	Name        string
	Capability  float64
	MemoryBytes uint64
}

// MemoryGiB returns the total memory in GiB.
func (i Info) MemoryGiB() float64 { return float64(i.MemoryBytes) / gib }

// Profile is the evaluated device/precision decision for one slot.
type Profile struct {
	Kind       Kind      `json:"kind"`
	Index      int       `json:"index"`
	Name       string    `json:"name,omitempty"`
	Capability float64   `json:"compute_capability"`
	MemoryGiB  float64   `json:"memory_gib"`
	Precision  Precision `json:"precision"`
}

// CPU is the fallback profile.
func CPU() Profile { return Profile{Kind: KindCPU, Precision: FP32} }

// Accelerated reports whether the profile runs on an accelerator.
func (p Profile) Accelerated() bool { return p.Kind == KindAccelerator }

// Half reports whether the profile runs at half precision.
func (p Profile) Half() bool { return p.Precision == FP16 }

// String renders the device the way torch-style runtimes expect it.
func (p Profile) String() string {
	if p.Kind == KindAccelerator {
		return fmt.Sprintf("cuda:%d", p.Index)
	}
	return "cpu"
}

func sameCapability(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// Select evaluates one candidate slot. A nil info means no accelerator is
// present for the slot.
func Select(info *Info) Profile {
	if info == nil {
		return CPU()
	}
	cpu := Profile{Kind: KindCPU, Index: info.Index, Precision: FP32}
	mem := info.MemoryGiB() + memoryAllowanceGiB
	capability := info.Capability
	if mem < minMemoryGiB || capability < minCapability {
		return cpu
	}
	acc := Profile{
		Kind:       KindAccelerator,
		Index:      info.Index,
		Name:       info.Name,
		Capability: capability,
		MemoryGiB:  mem,
	}
	lowPrecisionSKU := sameCapability(capability, turingCapability) && lowPrecisionFamily.MatchString(info.Name)
	if sameCapability(capability, legacyCapability) || lowPrecisionSKU {
		acc.Precision = FP32
		return acc
	}
	if capability > legacyCapability {
		acc.Precision = FP16
		return acc
	}
	return cpu
}

// ChooseActive picks the accelerator with the highest (capability, memory)
// tuple, lowest index on ties. Without any accelerator the CPU is active.
func ChooseActive(profiles []Profile) Profile {
	best := CPU()
	found := false
	for _, p := range profiles {
		if !p.Accelerated() {
			continue
		}
		if !found || better(p, best) {
			best = p
			found = true
		}
	}
	return best
}

func better(a, b Profile) bool {
	if !sameCapability(a.Capability, b.Capability) {
		return a.Capability > b.Capability
	}
	if a.MemoryGiB != b.MemoryGiB {
		return a.MemoryGiB > b.MemoryGiB
	}
	return a.Index < b.Index
}

// HalfPrecision is true when any evaluated profile resolved to FP16, even if
// that profile is not the active one.
func HalfPrecision(profiles []Profile) bool {
	for _, p := range profiles {
		if p.Half() {
			return true
		}
	}
	return false
}
