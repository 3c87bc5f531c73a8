package cmd

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information of a connected probe",
	Long: `Connect to a debug probe and print its product name, serial number and
hardware/firmware versions. The probe is selected with --serialnumber or
defaults to the first one detected.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := newController()
	if err != nil {
		return err
	}
	ctrl.LogSDKInfo()
	if err := openProbe(ctrl, reg); err != nil {
		return err
	}
	defer ctrl.Disconnect()

	ctrl.LogProbeInfo()
	return nil
}
