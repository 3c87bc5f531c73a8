package cmd

import (
	"github.com/spf13/cobra"
)

var (
	mcuInfoDevice    string
	mcuInfoInterface string
)

var mcuInfoCmd = &cobra.Command{
	Use:   "mcu-info",
	Short: "Show information of the target MCU",
	Long: `Connect to a debug probe and through it to the target MCU, then print the
MCU information block: core, family, memory sizes, endianness, clock
frequencies and supply voltage.`,
	RunE: runMCUInfo,
}

func init() {
	rootCmd.AddCommand(mcuInfoCmd)

	mcuInfoCmd.Flags().StringVarP(&mcuInfoDevice, "device", "d", "",
		"target MCU to connect (i.e. stm32l431vc)")
	mcuInfoCmd.Flags().StringVarP(&mcuInfoInterface, "interface", "i", "",
		"probe-MCU interface protocol to use (i.e. swd, jtag, spi)")
	mcuInfoCmd.MarkFlagRequired("device")
}

func runMCUInfo(cmd *cobra.Command, args []string) error {
	ctrl, reg, err := newController()
	if err != nil {
		return err
	}
	if err := openProbe(ctrl, reg); err != nil {
		return err
	}
	defer ctrl.Disconnect()

	if err := openTarget(ctrl, mcuInfoDevice, mcuInfoInterface); err != nil {
		return err
	}
	ctrl.LogTargetInfo()
	return nil
}
