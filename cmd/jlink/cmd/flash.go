package cmd

import (
	"fmt"
	"strconv"

	"github.com/J-Rios/jlink-tools/pkg/probe"
	"github.com/spf13/cobra"
)

var (
	flashDevice    string
	flashInterface string
	flashFile      string
	flashAddress   string
)

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Flash a firmware file to the target MCU",
	Long: `Write a binary firmware file to the target MCU memory and verify the
written image byte-for-byte against the source file. A verification
mismatch is always a failure: it means the target holds an unverified
image.

Examples:
  jlink flash -d stm32l431vc -f firmware.bin
  jlink flash -d stm32l431vc -f firmware.bin -a 0x08020000 -i swd`,
	RunE: runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)

	flashCmd.Flags().StringVarP(&flashDevice, "device", "d", "",
		"target MCU to connect (i.e. stm32l431vc)")
	flashCmd.Flags().StringVarP(&flashInterface, "interface", "i", "",
		"probe-MCU interface protocol to use (i.e. swd, jtag, spi)")
	flashCmd.Flags().StringVarP(&flashFile, "firmwarefile", "f", "",
		"input firmware file to flash")
	flashCmd.Flags().StringVarP(&flashAddress, "address", "a", "0x08000000",
		"MCU memory address to start writing the firmware file")
	flashCmd.MarkFlagRequired("device")
	flashCmd.MarkFlagRequired("firmwarefile")
}

func runFlash(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(flashAddress)
	if err != nil {
		return err
	}
	ctrl, reg, err := newController()
	if err != nil {
		return err
	}
	if err := openProbe(ctrl, reg); err != nil {
		return err
	}
	defer ctrl.Disconnect()

	if err := openTarget(ctrl, flashDevice, flashInterface); err != nil {
		return err
	}
	ctrl.LogTargetInfo()

	engine := probe.NewTransferEngine(ctrl)
	return engine.Flash(probe.TransferRequest{
		FilePath:     flashFile,
		StartAddress: address,
	}, nil)
}

// parseAddress parses a memory address with automatic base detection.
func parseAddress(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid memory address %q: %w", s, err)
	}
	return uint32(n), nil
}
