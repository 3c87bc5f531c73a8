package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	// Global flags
	verbose     bool
	backendName string
	serialFlag  string

	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "jlink",
	Short: "Debug probe controller for detection, flashing and RTT logging",
	Long: `Scriptable controller for USB debug probes: probe detection, target MCU
connection, firmware flashing with verification, memory dump and RTT log
streaming.

Examples:
  jlink detect                                       # List attached probes
  jlink info -s 50123456                             # Show probe information
  jlink mcu-info -d stm32l431vc -i swd               # Show target MCU information
  jlink flash -d stm32l431vc -f fw.bin -a 0x08000000 # Flash and verify firmware
  jlink dump -d stm32l431vc -f dump.bin              # Dump flash memory to file
  jlink rtt -d stm32l431vc -l device.log             # Stream RTT device logs`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	initLogger()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "jlink",
		"probe SDK backend (jlink, sim)")
	rootCmd.PersistentFlags().StringVarP(&serialFlag, "serialnumber", "s", "",
		"serial number of the probe to use (defaults to first detected)")

	cobra.OnInitialize(func() {
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		}
	})
}

func initLogger() {
	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()
	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)
}
