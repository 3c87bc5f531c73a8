package cmd

import (
	"fmt"
	"strconv"

	"github.com/J-Rios/jlink-tools/pkg/probe"
)

// newSDK creates the probe SDK backend selected by --backend. The "sim"
// backend is an in-memory simulator useful for trying out commands
// without hardware; the "jlink" backend expects a vendor SDK binding
// that implements probe.SDK.
func newSDK() (probe.SDK, error) {
	switch backendName {
	case "sim", "simulator":
		if verbose {
			logger.Debug("Using simulator backend")
		}
		return probe.NewSimSDK(), nil

	case "jlink":
		return nil, fmt.Errorf("jlink backend not built in: a vendor SDK binding implementing probe.SDK is required (use --backend sim to try commands without hardware)")

	default:
		return nil, fmt.Errorf("unknown backend: %s (supported: jlink, sim)", backendName)
	}
}

// newController builds a controller and registry over the selected
// backend.
func newController() (*probe.Controller, *probe.Registry, error) {
	sdk, err := newSDK()
	if err != nil {
		return nil, nil, err
	}
	ctrl := probe.NewController(sdk, probe.WithLogger(logger))
	return ctrl, probe.NewRegistry(sdk), nil
}

// parseSerial parses a serial number with automatic base detection, so
// plain decimal and 0x-prefixed hex both work.
func parseSerial(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid serial number %q: %w", s, err)
	}
	return int(n), nil
}

// openProbe runs the shared connect sequence of every command: discover
// attached probes, pick the one named by --serialnumber or default to
// the first detected with a warning, and connect to it. The caller owns
// the Disconnect.
func openProbe(ctrl *probe.Controller, reg *probe.Registry) error {
	probes, err := reg.Discover()
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		return fmt.Errorf("no debug probe detected in the system")
	}
	serial := 0
	if serialFlag != "" {
		if serial, err = parseSerial(serialFlag); err != nil {
			return err
		}
	} else {
		serial = probes[0].SerialNumber
		logger.Warnf("No probe serial number specified, using first detected device by default (%d)", serial)
	}
	if _, err := ctrl.ConnectProbe(serial); err != nil {
		return err
	}
	return nil
}

// openTarget connects the already-connected probe to the target MCU.
func openTarget(ctrl *probe.Controller, device, iface string) error {
	if _, err := ctrl.ConnectTarget(device, iface); err != nil {
		return err
	}
	return nil
}
