package cmd

import (
	"os/signal"
	"syscall"

	"github.com/J-Rios/jlink-tools/pkg/probe"
	"github.com/spf13/cobra"
)

var (
	rttDevice    string
	rttInterface string
	rttChannel   int
	rttLogFile   string
	rttSend      string
)

var rttCmd = &cobra.Command{
	Use:   "rtt",
	Short: "Stream RTT log messages from the target MCU",
	Long: `Connect to the target MCU, start an RTT session and stream the device log
lines to the console until interrupted (Ctrl+C / SIGTERM). Each line is
prefixed with a UTC timestamp. With --log, lines are duplicated to a file;
with --send, a message is written to the target after the session starts.

Examples:
  jlink rtt -d stm32l431vc
  jlink rtt -d stm32l431vc -r 1 -l device.log
  jlink rtt -d stm32l431vc --send "stats"`,
	RunE: runRTT,
}

func init() {
	rootCmd.AddCommand(rttCmd)

	rttCmd.Flags().StringVarP(&rttDevice, "device", "d", "",
		"target MCU to connect (i.e. stm32l431vc)")
	rttCmd.Flags().StringVarP(&rttInterface, "interface", "i", "",
		"probe-MCU interface protocol to use (i.e. swd, jtag, spi)")
	rttCmd.Flags().IntVarP(&rttChannel, "channel", "r", -1,
		"RTT channel number to connect (defaults to 0)")
	rttCmd.Flags().StringVarP(&rttLogFile, "log", "l", "",
		"duplicate emitted RTT lines to this file")
	rttCmd.Flags().StringVar(&rttSend, "send", "",
		"write this message to the target once RTT is started")
	rttCmd.MarkFlagRequired("device")
}

func runRTT(cmd *cobra.Command, args []string) error {
	if rttChannel < 0 {
		rttChannel = 0
		logger.Warn("No RTT channel specified, using channel 0 as default")
	}
	ctrl, reg, err := newController()
	if err != nil {
		return err
	}
	if err := openProbe(ctrl, reg); err != nil {
		return err
	}
	defer ctrl.Disconnect()

	if err := openTarget(ctrl, rttDevice, rttInterface); err != nil {
		return err
	}
	ctrl.LogTargetInfo()

	session := probe.NewRttSession(ctrl)
	if err := session.Start(rttLogFile); err != nil {
		return err
	}
	defer session.Close()

	if rttSend != "" {
		if err := session.Write(rttChannel, rttSend); err != nil {
			logger.Errorf("RTT write failed: %v", err)
		}
	}

	// Cooperative polling loop: each read is a bounded single-byte
	// operation, so cancellation is observed between iterations. A
	// transient read fault is logged and does not end the session.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if _, err := session.ReadOnce(rttChannel); err != nil {
			logger.Errorf("RTT read failed: %v", err)
		}
	}
}
