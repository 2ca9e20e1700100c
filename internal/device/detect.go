package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Options tune Detect.
type Options struct {
	// ForceCPU skips probing and selects the CPU.
	ForceCPU bool
	// Pin selects a specific accelerator index when it qualifies; -1 disables.
	Pin int
}

// Report is the startup decision: every evaluated slot, the active profile
// and the process-wide half precision default.
type Report struct {
	Candidates  []Profile `json:"candidates"`
	Active      Profile   `json:"active"`
	Half        bool      `json:"is_half"`
	Diagnostics []string  `json:"diagnostics,omitempty"`
}

// Detect probes once and evaluates every candidate. It never fails: probe
// errors and missing accelerators degrade to CPU/FP32 with a diagnostic.
func Detect(ctx context.Context, prober Prober, opts Options) Report {
	var rep Report
	if opts.ForceCPU {
		rep.Candidates = []Profile{CPU()}
		rep.Active = CPU()
		rep.Diagnostics = append(rep.Diagnostics, "cpu forced by configuration")
		return rep
	}
	var infos []Info
	if prober != nil {
		var err error
		infos, err = prober.Probe(ctx)
		switch {
		case errors.Is(err, ErrNoAccelerator):
			rep.Diagnostics = append(rep.Diagnostics, "no accelerator runtime found; using cpu")
		case err != nil:
			rep.Diagnostics = append(rep.Diagnostics, fmt.Sprintf("device probe failed (%v); using cpu", err))
			infos = nil
		}
	}
	if len(infos) == 0 {
		// One slot is always evaluated so the report has a candidate.
		rep.Candidates = []Profile{Select(nil)}
	}
	for i := range infos {
		p := Select(&infos[i])
		if !p.Accelerated() {
			rep.Diagnostics = append(rep.Diagnostics, fmt.Sprintf("device %d (%s, sm %.1f, %.1f GiB) rejected; slot falls back to cpu",
				infos[i].Index, infos[i].Name, infos[i].Capability, infos[i].MemoryGiB()))
		}
		rep.Candidates = append(rep.Candidates, p)
	}
	rep.Active = ChooseActive(rep.Candidates)
	if opts.Pin >= 0 {
		pinned := false
		for _, p := range rep.Candidates {
			if p.Accelerated() && p.Index == opts.Pin {
				rep.Active = p
				pinned = true
				break
			}
		}
		if !pinned {
			rep.Diagnostics = append(rep.Diagnostics, fmt.Sprintf("pinned device %d not usable; keeping %s", opts.Pin, rep.Active))
		}
	}
	rep.Half = HalfPrecision(rep.Candidates)
	if !rep.Active.Accelerated() {
		rep.Diagnostics = append(rep.Diagnostics, "inference will run on cpu at fp32")
	}
	return rep
}

// Log writes the report to l at info level, diagnostics at warn.
func (r Report) Log(l zerolog.Logger) {
	for _, d := range r.Diagnostics {
		l.Warn().Str("component", "device").Msg(d)
	}
	l.Info().
		Str("component", "device").
		Str("active", r.Active.String()).
		Str("precision", string(r.Active.Precision)).
		Bool("is_half", r.Half).
		Int("candidates", len(r.Candidates)).
		Msg("device selected")
}
