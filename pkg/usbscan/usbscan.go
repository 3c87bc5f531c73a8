// Package usbscan provides a bus-level cross-check for probe discovery:
// it enumerates USB devices directly and classifies the ones that look
// like debug probes by VID/PID. It answers "is the probe on the bus at
// all" when the vendor SDK reports nothing, without touching the SDK.
package usbscan

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// VendorIDSegger is the USB vendor ID used by SEGGER probes.
const VendorIDSegger = 0x1366

// ProbeClass categorizes detected probe families.
type ProbeClass string

const (
	ProbeClassJLink    ProbeClass = "jlink"
	ProbeClassCMSISDAP ProbeClass = "cmsis-dap"
	ProbeClassUnknown  ProbeClass = "unknown"
)

// DeviceInfo describes one USB device classified as a debug probe.
type DeviceInfo struct {
	Class       ProbeClass
	Description string
	VendorID    uint16
	ProductID   uint16
}

// Label returns a user-friendly description for the device.
func (d DeviceInfo) Label() string {
	if d.Description != "" {
		return fmt.Sprintf("%s (%04X:%04X)", d.Description, d.VendorID, d.ProductID)
	}
	return fmt.Sprintf("Probe %04X:%04X", d.VendorID, d.ProductID)
}

// Scan enumerates USB-attached devices that match known debug-probe
// VID/PID pairs. Access errors on individual devices are tolerated since
// the scan only needs descriptors, not open handles.
func Scan(ctx context.Context) ([]DeviceInfo, error) {
	var results []DeviceInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSBDevice(desc); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}
	return results, nil
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (DeviceInfo, bool) {
	for _, known := range knownProbeVIDPIDs {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return DeviceInfo{
				Class:       known.Class,
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
			}, true
		}
	}
	if uint16(desc.Vendor) == VendorIDSegger {
		// SEGGER VID with an unlisted PID is still almost certainly a
		// J-Link variant or OEM rebrand.
		return DeviceInfo{
			Class:       ProbeClassJLink,
			Description: "SEGGER J-Link (unlisted model)",
			VendorID:    uint16(desc.Vendor),
			ProductID:   uint16(desc.Product),
		}, true
	}
	return DeviceInfo{}, false
}

type knownUSBDevice struct {
	VendorID    uint16
	ProductID   uint16
	Class       ProbeClass
	Description string
}

var knownProbeVIDPIDs = []knownUSBDevice{
	{VendorID: VendorIDSegger, ProductID: 0x0101, Class: ProbeClassJLink, Description: "SEGGER J-Link"},
	{VendorID: VendorIDSegger, ProductID: 0x0105, Class: ProbeClassJLink, Description: "SEGGER J-Link (CDC)"},
	{VendorID: VendorIDSegger, ProductID: 0x1015, Class: ProbeClassJLink, Description: "SEGGER J-Link OB"},
	{VendorID: VendorIDSegger, ProductID: 0x1051, Class: ProbeClassJLink, Description: "SEGGER J-Link EDU Mini"},
	{VendorID: 0x0d28, ProductID: 0x0204, Class: ProbeClassCMSISDAP, Description: "DAPLink CMSIS-DAP"},
	{VendorID: 0x2e8a, ProductID: 0x000c, Class: ProbeClassCMSISDAP, Description: "Raspberry Pi Debug Probe"},
}
