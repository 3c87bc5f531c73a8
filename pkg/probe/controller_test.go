package probe

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func newTestController(sdk SDK) *Controller {
	log, _ := test.NewNullLogger()
	return NewController(sdk, WithLogger(log))
}

func TestConnectProbe(t *testing.T) {
	sdk := NewSimSDK()
	ctrl := newTestController(sdk)

	probe, err := ctrl.ConnectProbe(880012345)
	if err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}
	if probe.ProductName != "SimLink V10" {
		t.Fatalf("product name not normalized: %q", probe.ProductName)
	}
	if probe.SerialNumber != 880012345 {
		t.Fatalf("serial = %d, want 880012345", probe.SerialNumber)
	}
	if !ctrl.IsProbeConnected() {
		t.Fatalf("IsProbeConnected() = false after connect")
	}
	if !sdk.DialogsDisabled() {
		t.Fatalf("vendor dialogs were not suppressed")
	}
}

func TestConnectProbeOEMPrefix(t *testing.T) {
	sdk := NewSimSDK()
	sdk.Probe.OEM = "Nordic"
	ctrl := newTestController(sdk)

	probe, err := ctrl.ConnectProbe(880012345)
	if err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}
	if probe.ProductName != "Nordic SimLink V10" {
		t.Fatalf("OEM tag not prefixed: %q", probe.ProductName)
	}
}

func TestConnectProbeSerialFallback(t *testing.T) {
	sdk := NewSimSDK()
	sdk.Probe.SerialNumber = -1
	ctrl := newTestController(sdk)

	probe, err := ctrl.ConnectProbe(880012345)
	if err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}
	if probe.SerialNumber != 880012345 {
		t.Fatalf("serial fallback missing: got %d", probe.SerialNumber)
	}
}

func TestConnectProbeOpenFailure(t *testing.T) {
	sdk := NewSimSDK()
	sdk.OnOpen = func(int) error { return errors.New("usb open fault") }
	ctrl := newTestController(sdk)

	if _, err := ctrl.ConnectProbe(880012345); err == nil {
		t.Fatalf("expected error from open failure")
	}
	if ctrl.IsProbeConnected() {
		t.Fatalf("controller connected after open failure")
	}
}

// deadProbeSDK opens fine but never reports a live probe link, as when
// the cable is pulled right after open.
type deadProbeSDK struct {
	*SimSDK
}

func (d *deadProbeSDK) IsConnectedToProbe() bool { return false }

func TestConnectProbeLivenessFailureReleasesHandle(t *testing.T) {
	sdk := &deadProbeSDK{NewSimSDK()}
	ctrl := newTestController(sdk)

	if _, err := ctrl.ConnectProbe(880012345); err == nil {
		t.Fatalf("expected error from liveness check")
	}
	if sdk.IsOpen() {
		t.Fatalf("handle left open after failed liveness check")
	}
}

func TestConnectTargetRequiresProbe(t *testing.T) {
	ctrl := newTestController(NewSimSDK())

	_, err := ctrl.ConnectTarget("stm32l431vc", "swd")
	if err == nil {
		t.Fatalf("expected error when connecting target while disconnected")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("error = %v, want ErrNotConnected", err)
	}
}

func TestConnectTarget(t *testing.T) {
	sdk := NewSimSDK()
	ctrl := newTestController(sdk)
	if _, err := ctrl.ConnectProbe(880012345); err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}

	target, err := ctrl.ConnectTarget("stm32l431vc", "jtag")
	if err != nil {
		t.Fatalf("ConnectTarget returned error: %v", err)
	}
	if sdk.Transport() != TransportJTAG {
		t.Fatalf("transport = %v, want JTAG", sdk.Transport())
	}
	if target.Name != "STM32L431VC" || target.FlashSize != 256*1024 {
		t.Fatalf("target snapshot wrong: %+v", target)
	}
	if !ctrl.IsReady() {
		t.Fatalf("IsReady() = false with probe and target connected")
	}
}

func TestConnectTargetFailureKeepsProbe(t *testing.T) {
	sdk := NewSimSDK()
	sdk.OnConnect = func(string) error { return errors.New("no response from target") }
	ctrl := newTestController(sdk)
	if _, err := ctrl.ConnectProbe(880012345); err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}

	if _, err := ctrl.ConnectTarget("stm32l431vc", "swd"); err == nil {
		t.Fatalf("expected error from target connect failure")
	}
	if !ctrl.IsProbeConnected() {
		t.Fatalf("probe connection lost after target connect failure")
	}
	if ctrl.IsTargetConnected() {
		t.Fatalf("target reported connected after failure")
	}
}

func TestDisconnect(t *testing.T) {
	sdk := NewSimSDK()
	ctrl := newTestController(sdk)
	if _, err := ctrl.ConnectProbe(880012345); err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}
	if _, err := ctrl.ConnectTarget("stm32l431vc", "swd"); err != nil {
		t.Fatalf("ConnectTarget returned error: %v", err)
	}

	if err := ctrl.Disconnect(); err != nil {
		t.Fatalf("Disconnect returned error: %v", err)
	}
	if ctrl.IsProbeConnected() || ctrl.IsTargetConnected() {
		t.Fatalf("still connected after Disconnect")
	}
	if ctrl.Probe() != (ConnectedProbe{}) {
		t.Fatalf("probe snapshot not cleared: %+v", ctrl.Probe())
	}
	if ctrl.Target() != (ConnectedTarget{}) {
		t.Fatalf("target snapshot not cleared: %+v", ctrl.Target())
	}
}

// failingCloseSDK reports a close failure while still dropping the
// connection state.
type failingCloseSDK struct {
	*SimSDK
}

func (f *failingCloseSDK) Close() error {
	f.SimSDK.Close()
	return errors.New("close fault")
}

func TestDisconnectCloseFailureStillDisconnects(t *testing.T) {
	sdk := &failingCloseSDK{NewSimSDK()}
	ctrl := newTestController(sdk)
	if _, err := ctrl.ConnectProbe(880012345); err != nil {
		t.Fatalf("ConnectProbe returned error: %v", err)
	}

	if err := ctrl.Disconnect(); err == nil {
		t.Fatalf("expected close failure to be reported")
	}
	if ctrl.Probe() != (ConnectedProbe{}) {
		t.Fatalf("snapshot kept after intended disconnect")
	}
}

func TestNormalizeProductName(t *testing.T) {
	cases := []struct {
		name, oem, want string
	}{
		{"J-Link V10 compiled Dec  1 2022", "", "J-Link V10"},
		{"J-Link V10", "", "J-Link V10"},
		{"J-Link V10 compiled Dec  1 2022", "SEGGER", "SEGGER J-Link V10"},
		{"", "OEM", "OEM "},
	}
	for _, c := range cases {
		if got := normalizeProductName(c.name, c.oem); got != c.want {
			t.Fatalf("normalizeProductName(%q, %q) = %q, want %q", c.name, c.oem, got, c.want)
		}
	}
}
