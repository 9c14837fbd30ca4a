package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/audio"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.ListCaptureDevices()
			if err != nil {
				return fmt.Errorf("enumerate capture devices: %w", err)
			}
			stdout := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(stdout, "No capture devices found")
				return nil
			}

			cfg := ctx.configValue()
			configured := -1
			if cfg != nil {
				configured = cfg.Audio.DeviceIndex
			}

			rows := make([][]string, 0, len(devices))
			for _, device := range devices {
				marker := ""
				if device.IsDefault {
					marker = "default"
				}
				if device.Index == configured {
					if marker != "" {
						marker += ", "
					}
					marker += "configured"
				}
				rows = append(rows, []string{strconv.Itoa(device.Index), device.Name, marker})
			}
			table := renderTable(
				[]string{"Index", "Name", "Notes"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}
}
