package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igdroid/pkg/config"
	"igdroid/pkg/device"
	"igdroid/pkg/logger"
	"igdroid/pkg/ui"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected Android devices",
	Long: `List Android devices and emulators that answer adb.

The engine picks the only connected device automatically; with more than
one connected, name the device with --serial or IGDROID_DEVICE_SERIAL.`,
	Run: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	logger.Initialize(&cfg.Logging)

	serials, err := device.Devices(context.Background(), cfg.Device.ADBPath, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to list devices", err.Error())
		os.Exit(1)
	}

	if len(serials) == 0 {
		ui.PrintWarning("No devices connected", "start an emulator or plug in a device with USB debugging enabled")
		return
	}

	for _, s := range serials {
		if s == cfg.Device.Serial {
			fmt.Printf("%s  (selected)\n", s)
		} else {
			fmt.Println(s)
		}
	}
}
