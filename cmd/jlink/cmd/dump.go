package cmd

import (
	"github.com/J-Rios/jlink-tools/pkg/probe"
	"github.com/spf13/cobra"
)

var (
	dumpDevice    string
	dumpInterface string
	dumpFile      string
	dumpAddress   string
	dumpLength    int
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump target MCU memory to a file",
	Long: `Read target MCU memory and write the raw bytes to an output file. When no
length is given, the full flash size of the connected target is read.

Examples:
  jlink dump -d stm32l431vc -f dump.bin
  jlink dump -d stm32l431vc -f dump.bin -a 0x08000000 --length 4096`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().StringVarP(&dumpDevice, "device", "d", "",
		"target MCU to connect (i.e. stm32l431vc)")
	dumpCmd.Flags().StringVarP(&dumpInterface, "interface", "i", "",
		"probe-MCU interface protocol to use (i.e. swd, jtag, spi)")
	dumpCmd.Flags().StringVarP(&dumpFile, "dumpfile", "f", "",
		"output file for the memory dump")
	dumpCmd.Flags().StringVarP(&dumpAddress, "address", "a", "0x08000000",
		"MCU memory address to start reading from")
	dumpCmd.Flags().IntVar(&dumpLength, "length", 0,
		"number of bytes to read (0 = full flash size)")
	dumpCmd.MarkFlagRequired("device")
	dumpCmd.MarkFlagRequired("dumpfile")
}

func runDump(cmd *cobra.Command, args []string) error {
	address, err := parseAddress(dumpAddress)
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

	if err := openTarget(ctrl, dumpDevice, dumpInterface); err != nil {
		return err
	}
	engine := probe.NewTransferEngine(ctrl)
	return engine.Dump(dumpFile, address, dumpLength)
}
