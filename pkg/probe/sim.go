package probe

import (
	"fmt"
	"os"
)

// SimProbe describes one probe the simulator pretends is attached.
type SimProbe struct {
	ProductName  string
	SerialNumber int
}

// SimSDK is an in-memory SDK implementation useful for unit tests and
// for exercising the CLI without hardware. Flash memory is a flat byte
// array starting at FlashBase; RTT channels are plain byte queues. Each
// SDK call can be overridden through the On* hooks to emulate faults or
// device-specific behavior.
type SimSDK struct {
	Probes    []SimProbe
	Probe     ProbeInfo
	Target    TargetInfo
	FlashBase uint32
	Flash     []byte

	// Failure-injection hooks. A nil hook means the default in-memory
	// behavior.
	OnEnumerate  func() ([]USBProbeInfo, error)
	OnOpen       func(serialNumber int) error
	OnConnect    func(name string) error
	OnReadMemory func(address uint32, length int) ([]byte, error)
	OnFlashFile  func(path string, address uint32, onProgress ProgressFunc) (int, error)
	OnUnlock     func() error
	OnRTTStart   func() error
	OnRTTRead    func(channel, maxBytes int) ([]byte, error)
	OnRTTWrite   func(channel int, data []byte) (int, error)

	opened          bool
	targetConnected bool
	transport       Transport
	rttStarted      bool
	rttIn           map[int][]byte
	rttOut          map[int][]byte
	dialogsDisabled bool
}

// NewSimSDK constructs a simulator with one attached probe, a small STM32
// style target and 256 KB of flash at 0x08000000.
func NewSimSDK() *SimSDK {
	return &SimSDK{
		Probes: []SimProbe{
			{ProductName: "SimLink V10 compiled Dec  1 2022 12:00:00", SerialNumber: 880012345},
		},
		Probe: ProbeInfo{
			ProductName:     "SimLink V10 compiled Dec  1 2022 12:00:00",
			SerialNumber:    880012345,
			HardwareVersion: "10.10",
			FirmwareVersion: "SimLink V10 Dec  1 2022",
		},
		Target: TargetInfo{
			Core:              "Cortex-M4",
			CoreID:            0x2BA01477,
			DeviceFamily:      "STM32L4",
			Manufacturer:      "ST",
			CPUID:             0x410FC241,
			Name:              "STM32L431VC",
			FlashSize:         256 * 1024,
			RAMSize:           64 * 1024,
			Endianness:        LittleEndian,
			Frequency:         80000000,
			BaseFrequency:     4000000,
			VoltageMillivolts: 3300,
		},
		FlashBase: 0x08000000,
		Flash:     make([]byte, 256*1024),
		rttIn:     map[int][]byte{},
		rttOut:    map[int][]byte{},
	}
}

// QueueRTT appends bytes that subsequent RTTRead calls on the channel
// will drain.
func (s *SimSDK) QueueRTT(channel int, data []byte) {
	s.rttIn[channel] = append(s.rttIn[channel], data...)
}

// RTTWritten returns everything written to the channel so far.
func (s *SimSDK) RTTWritten(channel int) []byte {
	return append([]byte(nil), s.rttOut[channel]...)
}

// DialogsDisabled reports whether DisableDialogs was called on the open
// handle.
func (s *SimSDK) DialogsDisabled() bool {
	return s.dialogsDisabled
}

// Transport returns the transport selected by the last SetTransport.
func (s *SimSDK) Transport() Transport {
	return s.transport
}

func (s *SimSDK) Version() string {
	return "Sim DLL V7.88"
}

func (s *SimSDK) EnumerateUSBProbes() ([]USBProbeInfo, error) {
	if s.OnEnumerate != nil {
		return s.OnEnumerate()
	}
	out := make([]USBProbeInfo, 0, len(s.Probes))
	for _, p := range s.Probes {
		out = append(out, USBProbeInfo{ProductName: p.ProductName, SerialNumber: p.SerialNumber})
	}
	return out, nil
}

func (s *SimSDK) Open(serialNumber int) error {
	if s.OnOpen != nil {
		if err := s.OnOpen(serialNumber); err != nil {
			return err
		}
	} else {
		found := false
		for _, p := range s.Probes {
			if p.SerialNumber == serialNumber {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("sim: no probe with serial %d", serialNumber)
		}
	}
	s.opened = true
	return nil
}

func (s *SimSDK) Close() error {
	s.opened = false
	s.targetConnected = false
	s.rttStarted = false
	return nil
}

func (s *SimSDK) IsOpen() bool {
	return s.opened
}

func (s *SimSDK) IsConnectedToProbe() bool {
	return s.opened
}

func (s *SimSDK) DisableDialogs() error {
	s.dialogsDisabled = true
	return nil
}

func (s *SimSDK) ProbeInfo() (ProbeInfo, error) {
	if !s.opened {
		return ProbeInfo{}, fmt.Errorf("sim: probe not open")
	}
	return s.Probe, nil
}

func (s *SimSDK) SetTransport(t Transport) error {
	s.transport = t
	return nil
}

func (s *SimSDK) ConnectToTarget(name string) error {
	if !s.opened {
		return fmt.Errorf("sim: probe not open")
	}
	if s.OnConnect != nil {
		if err := s.OnConnect(name); err != nil {
			return err
		}
	}
	s.targetConnected = true
	return nil
}

func (s *SimSDK) IsTargetConnected() bool {
	return s.targetConnected
}

func (s *SimSDK) TargetInfo() (TargetInfo, error) {
	if !s.targetConnected {
		return TargetInfo{}, fmt.Errorf("sim: target not connected")
	}
	return s.Target, nil
}

func (s *SimSDK) ReadMemory(address uint32, length int) ([]byte, error) {
	if s.OnReadMemory != nil {
		return s.OnReadMemory(address, length)
	}
	if length < 0 {
		return nil, fmt.Errorf("sim: negative read length %d", length)
	}
	start := int(address - s.FlashBase)
	if start < 0 || start+length > len(s.Flash) {
		return nil, fmt.Errorf("sim: read of %d bytes at 0x%08X outside flash", length, address)
	}
	return append([]byte(nil), s.Flash[start:start+length]...), nil
}

func (s *SimSDK) FlashFile(path string, address uint32, onProgress ProgressFunc) (int, error) {
	if s.OnFlashFile != nil {
		return s.OnFlashFile(path, address, onProgress)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	start := int(address - s.FlashBase)
	if start < 0 || start+len(data) > len(s.Flash) {
		return 0, fmt.Errorf("sim: write of %d bytes at 0x%08X outside flash", len(data), address)
	}
	if onProgress != nil {
		onProgress("Program", "", 0)
		onProgress("Program", "", 50)
		onProgress("Program", "", 100)
		onProgress("Verify", "", 100)
	}
	copy(s.Flash[start:], data)
	return len(data), nil
}

func (s *SimSDK) UnlockTarget() error {
	if s.OnUnlock != nil {
		return s.OnUnlock()
	}
	return nil
}

func (s *SimSDK) RTTStart() error {
	if s.OnRTTStart != nil {
		return s.OnRTTStart()
	}
	if !s.targetConnected {
		return fmt.Errorf("sim: rtt start without target")
	}
	s.rttStarted = true
	return nil
}

func (s *SimSDK) RTTRead(channel, maxBytes int) ([]byte, error) {
	if s.OnRTTRead != nil {
		return s.OnRTTRead(channel, maxBytes)
	}
	if !s.rttStarted {
		return nil, fmt.Errorf("sim: rtt read before start")
	}
	buf := s.rttIn[channel]
	if len(buf) == 0 {
		return nil, nil
	}
	n := maxBytes
	if n > len(buf) {
		n = len(buf)
	}
	out := append([]byte(nil), buf[:n]...)
	s.rttIn[channel] = buf[n:]
	return out, nil
}

func (s *SimSDK) RTTWrite(channel int, data []byte) (int, error) {
	if s.OnRTTWrite != nil {
		return s.OnRTTWrite(channel, data)
	}
	s.rttOut[channel] = append(s.rttOut[channel], data...)
	return len(data), nil
}
