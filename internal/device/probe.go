package device

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoAccelerator is returned by probers when no accelerator runtime exists.
var ErrNoAccelerator = errors.New("no accelerator runtime available")

// Prober lists the accelerators visible to this process.
type Prober interface {
	Probe(ctx context.Context) ([]Info, error)
}

// StaticProber returns a fixed device list. Used for tests and for hosts
// where devices are declared in configuration.
type StaticProber []Info

func (s StaticProber) Probe(context.Context) ([]Info, error) {
	out := make([]Info, len(s))
	copy(out, s)
	return out, nil
}

// NvidiaSMIProber queries devices through the nvidia-smi CLI.
type NvidiaSMIProber struct {
	// Bin overrides the nvidia-smi executable; empty means lookup in PATH.
	Bin string
}

var smiArgs = []string{
	"--query-gpu=index,name,compute_cap,memory.total",
	"--format=csv,noheader,nounits",
}

func (p NvidiaSMIProber) Probe(ctx context.Context) ([]Info, error) {
	bin := p.Bin
	if bin == "" {
		found, err := exec.LookPath("nvidia-smi")
		if err != nil {
			return nil, ErrNoAccelerator
		}
		bin = found
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, smiArgs...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("nvidia-smi: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseSMI(bytes.NewReader(out))
}

// parseSMI parses `index, name, compute_cap, memory.total[MiB]` rows.
func parseSMI(r io.Reader) ([]Info, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 4
	var infos []Info
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse nvidia-smi output: %w", err)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("device index %q: %w", rec[0], err)
		}
		capability, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("compute capability %q: %w", rec[2], err)
		}
		memMiB, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("memory %q: %w", rec[3], err)
		}
		infos = append(infos, Info{
			Index:       idx,
			Name:        strings.TrimSpace(rec[1]),
			Capability:  capability,
			MemoryBytes: uint64(memMiB * 1024 * 1024),
		})
	}
	return infos, nil
}
