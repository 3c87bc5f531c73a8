package probe

// USBProbeInfo is one entry of a USB probe enumeration as reported by the
// vendor SDK. ProductName comes from the raw descriptor string.
type USBProbeInfo struct {
	ProductName  string
	SerialNumber int
}

// ProbeInfo holds the descriptive fields the SDK exposes on an open probe
// handle. ProductName is the raw vendor string, possibly including a
// trailing build-info suffix ("... compiled ...") that callers may strip.
type ProbeInfo struct {
	ProductName     string
	OEM             string
	SerialNumber    int
	HardwareVersion string
	FirmwareVersion string
}

// Endianness of a connected target core.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) String() string {
	if e == BigEndian {
		return "Big Endian"
	}
	return "Little Endian"
}

// TargetInfo holds the descriptive fields the SDK exposes once a target
// MCU connection is established. Sizes are bytes, frequencies Hertz,
// voltage millivolts.
type TargetInfo struct {
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

// ProgressFunc receives flash programming progress from the SDK. The
// action names the current phase ("Erase", "Program", ...), message is an
// optional extra status string, percentage is 0-100.
type ProgressFunc func(action, message string, percentage int)

// SDK abstracts the vendor debug-probe library. One SDK value owns exactly
// one underlying probe handle; it is not safe for concurrent use without
// external serialization. Implementations must not block forever on their
// own behalf beyond what the vendor library does.
type SDK interface {
	// Version returns the vendor toolchain/DLL version string.
	Version() string

	// EnumerateUSBProbes lists probes attached over USB. An empty slice
	// with a nil error means no probes are present; a non-nil error means
	// the enumeration itself failed.
	EnumerateUSBProbes() ([]USBProbeInfo, error)

	// Open acquires the probe with the given serial number. Close releases
	// the handle; it is safe to call on an unopened handle.
	Open(serialNumber int) error
	Close() error

	// IsOpen and IsConnectedToProbe query the live handle state; they are
	// never cached because the probe can vanish asynchronously.
	IsOpen() bool
	IsConnectedToProbe() bool

	// DisableDialogs suppresses any native interactive UI the vendor
	// library might raise, for headless operation.
	DisableDialogs() error

	// ProbeInfo reads the descriptive fields of the open probe handle.
	ProbeInfo() (ProbeInfo, error)

	// SetTransport selects the electrical protocol used to reach the
	// target. Must be called before ConnectToTarget.
	SetTransport(t Transport) error

	// ConnectToTarget connects the open probe to the named target MCU.
	ConnectToTarget(name string) error

	// IsTargetConnected queries the live target connection state.
	IsTargetConnected() bool

	// TargetInfo reads the descriptive fields of the connected target.
	TargetInfo() (TargetInfo, error)

	// ReadMemory reads length bytes of target memory starting at address.
	ReadMemory(address uint32, length int) ([]byte, error)

	// FlashFile programs the firmware file at the given base address,
	// reporting progress through onProgress (may be nil). Returns the
	// number of bytes written.
	FlashFile(path string, address uint32, onProgress ProgressFunc) (int, error)

	// UnlockTarget lifts read/write protection on targets that support
	// it. Callers may treat failure as non-fatal.
	UnlockTarget() error

	// RTT primitives. RTTRead returns up to maxBytes currently buffered
	// on the channel; an empty slice means no data was available, which
	// is not an error. RTTWrite returns the number of bytes accepted.
	RTTStart() error
	RTTRead(channel, maxBytes int) ([]byte, error)
	RTTWrite(channel int, data []byte) (int, error)
}
