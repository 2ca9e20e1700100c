package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c from the environment. The legacy GPT_MODEL_PATH and
// SOVITS_MODEL_PATH names are honored; TTSD_-prefixed names win over them.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}
	strs := []struct {
		dst  *string
		keys []string
	}{
		{&c.Addr, []string{"TTSD_ADDR"}},
		{&c.LogLevel, []string{"TTSD_LOG_LEVEL"}},
		{&c.LogFormat, []string{"TTSD_LOG_FORMAT"}},
		{&c.ScratchDir, []string{"TTSD_SCRATCH_DIR"}},
		{&c.WeightsDir, []string{"TTSD_WEIGHTS_DIR"}},
		{&c.Models.GPT, []string{"TTSD_GPT_MODEL_PATH", "GPT_MODEL_PATH"}},
		{&c.Models.SoVITS, []string{"TTSD_SOVITS_MODEL_PATH", "SOVITS_MODEL_PATH"}},
		{&c.Models.BERT, []string{"TTSD_BERT_PATH"}},
		{&c.Models.HuBERT, []string{"TTSD_HUBERT_PATH"}},
		{&c.Worker.Bin, []string{"TTSD_WORKER_BIN"}},
		{&c.Worker.URL, []string{"TTSD_WORKER_URL"}},
		{&c.Synthesis.Aggregate, []string{"TTSD_AGGREGATE"}},
		{&c.Events.NATSURL, []string{"TTSD_NATS_URL"}},
		{&c.HTTP.RequestLog, []string{"TTSD_REQUEST_LOG"}},
	}
	for _, s := range strs {
		if v, ok := get(s.keys...); ok {
			*s.dst = v
		}
	}
	if v, ok := get("TTSD_FORCE_CPU"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TTSD_FORCE_CPU: %w", err)
		}
		c.Device.ForceCPU = b
	}
	if v, ok := get("TTSD_DEVICE_INDEX"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TTSD_DEVICE_INDEX: %w", err)
		}
		c.Device.Index = &n
	}
	return nil
}
