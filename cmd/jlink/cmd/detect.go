package cmd

import (
	"context"
	"time"

	"github.com/J-Rios/jlink-tools/pkg/probe"
	"github.com/J-Rios/jlink-tools/pkg/usbscan"
	"github.com/spf13/cobra"
)

var detectUSBScan bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect debug probes attached to the system",
	Long: `Enumerate USB-attached debug probes through the SDK and list them with
index, product name and serial number.

With --usb-scan, additionally scan the USB bus directly for devices with
known debug-probe VID/PID pairs. This tells apart "no probe on the bus"
from "probe present but not visible to the SDK" (driver or permission
problems).`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().BoolVar(&detectUSBScan, "usb-scan", false,
		"also scan the USB bus directly for known probe VID/PIDs")
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := newController()
	if err != nil {
		return err
	}
	ctrl.LogSDKInfo()

	probes, err := reg.Discover()
	if err != nil {
		return err
	}
	ctrl.LogProbeList(probes)
	logEachProbeInfo(ctrl, probes)

	if detectUSBScan {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		devices, err := usbscan.Scan(ctx)
		if err != nil {
			logger.Warnf("USB bus scan failed: %v", err)
			return nil
		}
		logger.Info("USB bus scan:")
		if len(devices) == 0 {
			logger.Info("No debug-probe devices on the USB bus")
		}
		for _, d := range devices {
			logger.Infof("  - %s", d.Label())
		}
	}
	return nil
}

// logEachProbeInfo connects to every discovered probe in turn and shows
// its information block. A probe that cannot be connected is reported
// and skipped so the remaining ones are still inspected.
func logEachProbeInfo(ctrl *probe.Controller, probes []probe.Identity) {
	for _, p := range probes {
		if _, err := ctrl.ConnectProbe(p.SerialNumber); err != nil {
			logger.Errorf("Can't connect to %s (%d)", p.ProductName, p.SerialNumber)
			continue
		}
		ctrl.LogProbeInfo()
		ctrl.Disconnect()
	}
}
