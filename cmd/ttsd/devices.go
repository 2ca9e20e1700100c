package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"ttsd/internal/device"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Probe compute devices and print the selection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prober := opts.prober
			if prober == nil {
				prober = device.NvidiaSMIProber{Bin: opts.cfg.Device.SMIBin}
			}
			rep := device.Detect(cmd.Context(), prober, device.Options{
				ForceCPU: opts.cfg.Device.ForceCPU,
				Pin:      opts.cfg.DevicePin(),
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
}
