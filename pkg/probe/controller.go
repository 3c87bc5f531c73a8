package probe

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConnectedProbe is a snapshot of the probe taken at connection time. It
// is stale once the controller disconnects.
type ConnectedProbe struct {
	ProductName     string
	SerialNumber    int
	HardwareVersion string
	FirmwareVersion string
}

// ConnectedTarget is a snapshot of the target MCU taken at connection
// time. It is stale once the probe disconnects and must not be read
// before a successful ConnectTarget.
type ConnectedTarget struct {
	Core              string
	CoreID            uint32
	DeviceFamily      string
	Manufacturer      string
	CPUID             uint32
	Name              string
	FlashSize         uint32
	RAMSize           uint32
	Endianness        Endianness
	Frequency         int64
	BaseFrequency     int64
	VoltageMillivolts int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for status lines and warnings.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// Controller manages the probe and target connection lifecycle over one
// SDK handle: Disconnected -> ProbeConnected -> TargetConnected, with
// Disconnect reachable from any state. One Controller owns exactly one
// SDK handle and is not safe for concurrent use without external
// serialization.
type Controller struct {
	sdk SDK
	log *logrus.Logger

	probe  ConnectedProbe
	target ConnectedTarget
}

// NewController returns a Controller in the Disconnected state.
func NewController(sdk SDK, opts ...Option) *Controller {
	c := &Controller{
		sdk: sdk,
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SDK exposes the underlying handle for collaborators (transfer engine,
// RTT session) built on the same connection.
func (c *Controller) SDK() SDK {
	return c.sdk
}

// Logger returns the controller's logger.
func (c *Controller) Logger() *logrus.Logger {
	return c.log
}

// ConnectProbe opens the probe with the given serial number. On success
// the probe snapshot is populated, vendor dialog boxes are suppressed for
// headless operation, and the controller is ProbeConnected. On any
// failure, including a post-open liveness check failing, the handle is
// released and the controller stays Disconnected.
func (c *Controller) ConnectProbe(serialNumber int) (ConnectedProbe, error) {
	c.log.Infof("Connecting to %d ...", serialNumber)
	if err := c.sdk.Open(serialNumber); err != nil {
		return ConnectedProbe{}, fmt.Errorf("failed to open probe %d: %w", serialNumber, err)
	}
	if !c.IsProbeConnected() {
		c.sdk.Close()
		return ConnectedProbe{}, fmt.Errorf("probe %d opened but liveness check failed", serialNumber)
	}
	c.log.Info("Probe Connected")

	info, err := c.sdk.ProbeInfo()
	if err != nil {
		c.sdk.Close()
		return ConnectedProbe{}, fmt.Errorf("failed to read probe info: %w", err)
	}
	c.probe = ConnectedProbe{
		ProductName:     normalizeProductName(info.ProductName, info.OEM),
		SerialNumber:    info.SerialNumber,
		HardwareVersion: info.HardwareVersion,
		FirmwareVersion: info.FirmwareVersion,
	}
	// Some handles report -1 until a full identify; fall back to the
	// serial the caller asked for.
	if c.probe.SerialNumber == -1 {
		c.probe.SerialNumber = serialNumber
	}

	if err := c.sdk.DisableDialogs(); err != nil {
		c.log.Warnf("Failed to suppress vendor dialogs: %v", err)
	}
	return c.probe, nil
}

// normalizeProductName strips the trailing " compiled ..." build-info
// suffix from the vendor product string and prefixes the OEM tag when one
// is reported.
func normalizeProductName(name, oem string) string {
	if i := strings.Index(name, " compiled"); i != -1 {
		name = name[:i]
	}
	if oem != "" {
		name = oem + " " + name
	}
	return name
}

// ConnectTarget connects the open probe to the named target MCU over the
// given transport. Valid only from ProbeConnected; on failure the probe
// connection stays usable. interfaceName is resolved case-insensitively,
// defaulting to SWD with a logged warning.
func (c *Controller) ConnectTarget(targetName, interfaceName string) (ConnectedTarget, error) {
	if !c.IsProbeConnected() {
		return ConnectedTarget{}, fmt.Errorf("cannot connect to target %s: %w", targetName, ErrNotConnected)
	}
	transport := ParseTransport(interfaceName, c.log)
	if err := c.sdk.SetTransport(transport); err != nil {
		return ConnectedTarget{}, fmt.Errorf("failed to select %s transport: %w", transport, err)
	}
	c.log.Infof("Connecting to %s ...", strings.ToUpper(targetName))
	if err := c.sdk.ConnectToTarget(targetName); err != nil {
		return ConnectedTarget{}, fmt.Errorf("failed to connect to MCU %s: %w", targetName, err)
	}
	if !c.IsTargetConnected() {
		return ConnectedTarget{}, fmt.Errorf("MCU %s connect reported but liveness check failed", targetName)
	}
	c.log.Info("MCU Connected")

	info, err := c.sdk.TargetInfo()
	if err != nil {
		return ConnectedTarget{}, fmt.Errorf("failed to read MCU info: %w", err)
	}
	c.target = ConnectedTarget{
		Core:              info.Core,
		CoreID:            info.CoreID,
		DeviceFamily:      info.DeviceFamily,
		Manufacturer:      info.Manufacturer,
		CPUID:             info.CPUID,
		Name:              info.Name,
		FlashSize:         info.FlashSize,
		RAMSize:           info.RAMSize,
		Endianness:        info.Endianness,
		Frequency:         info.Frequency,
		BaseFrequency:     info.BaseFrequency,
		VoltageMillivolts: info.VoltageMillivolts,
	}
	return c.target, nil
}

// Disconnect closes the probe handle and returns the controller to
// Disconnected. A close failure is returned but the controller still
// considers itself disconnected, since that is what the caller intended.
func (c *Controller) Disconnect() error {
	c.probe = ConnectedProbe{}
	c.target = ConnectedTarget{}
	if err := c.sdk.Close(); err != nil {
		return fmt.Errorf("failed to close probe connection: %w", err)
	}
	c.log.Info("Probe successfully disconnected")
	return nil
}

// IsProbeConnected reports whether the probe handle is open and alive.
// Always queried live against the SDK; the probe can vanish at any time.
func (c *Controller) IsProbeConnected() bool {
	return c.sdk.IsOpen() && c.sdk.IsConnectedToProbe()
}

// IsTargetConnected reports whether the target MCU connection is alive.
func (c *Controller) IsTargetConnected() bool {
	return c.sdk.IsTargetConnected()
}

// IsReady reports whether both the probe and the target are connected.
func (c *Controller) IsReady() bool {
	return c.IsProbeConnected() && c.IsTargetConnected()
}

// Probe returns the snapshot taken by the last successful ConnectProbe.
func (c *Controller) Probe() ConnectedProbe {
	return c.probe
}

// Target returns the snapshot taken by the last successful ConnectTarget.
func (c *Controller) Target() ConnectedTarget {
	return c.target
}

// LogSDKInfo logs the vendor toolchain version banner.
func (c *Controller) LogSDKInfo() {
	c.log.Info("Probe SDK Information:")
	c.log.Info("----------------------------")
	c.log.Infof("Toolchain Version: %s", c.sdk.Version())
}

// LogProbeList logs a discovered-probe listing, one line per probe with
// its index, product name and serial number.
func (c *Controller) LogProbeList(probes []Identity) {
	c.log.Info("List of probe devices detected:")
	c.log.Info("--------------------------------")
	if len(probes) == 0 {
		c.log.Info("No debug probes found")
		return
	}
	for i, p := range probes {
		c.log.Infof("%d - %s - %d", i, p.ProductName, p.SerialNumber)
	}
}

// LogProbeInfo logs the connected-probe information block.
func (c *Controller) LogProbeInfo() {
	c.log.Info("Connected Probe Information:")
	c.log.Info("----------------------------")
	c.log.Infof("Product Name: %s", c.probe.ProductName)
	c.log.Infof("Serial Number: %d", c.probe.SerialNumber)
	c.log.Infof("HW Version: %s", c.probe.HardwareVersion)
	c.log.Infof("FW Version: %s", c.probe.FirmwareVersion)
}

// LogTargetInfo logs the connected-MCU information block with derived
// human units (KB, MHz, V).
func (c *Controller) LogTargetInfo() {
	t := c.target
	c.log.Info("Connected MCU Information:")
	c.log.Info("----------------------------")
	c.log.Infof("MCU Name: %s", t.Name)
	c.log.Infof("Manufacturer: %s", t.Manufacturer)
	c.log.Infof("Core: %s (0x%08X)", t.Core, t.CoreID)
	c.log.Infof("CPU ID: 0x%08X", t.CPUID)
	c.log.Infof("Family: %s", t.DeviceFamily)
	c.log.Infof("Flash Size: %d KB", t.FlashSize/1024)
	c.log.Infof("RAM Size: %d KB", t.RAMSize/1024)
	c.log.Infof("Endianess: %s", t.Endianness)
	c.log.Infof("Base Frequency: %g MHz", float64(t.BaseFrequency)/1000000)
	c.log.Infof("Frequency: %g MHz", float64(t.Frequency)/1000000)
	c.log.Infof("Voltage: %g V", float64(t.VoltageMillivolts)/1000)
}
