package probe

import (
	"errors"
	"fmt"
)

// ErrNotReady signals that an operation needing both a probe and a target
// connection was invoked without one.
var ErrNotReady = errors.New("probe: probe/MCU is not ready")

// ErrNotConnected signals that an operation needing an open probe handle
// was invoked while disconnected.
var ErrNotConnected = errors.New("probe: not connected to a probe")

// VerificationError reports a post-flash read-back that differs from the
// firmware image that was written. The target now holds an unverified
// image; this must never be downgraded to a warning.
type VerificationError struct {
	Address      uint32
	ExpectedLen  int
	ActualLen    int
	FirstBadByte int // byte offset of first mismatch, -1 for length-only mismatch
}

func (e *VerificationError) Error() string {
	if e.ExpectedLen != e.ActualLen {
		return fmt.Sprintf("verification mismatch at 0x%08X: wrote %d bytes, read back %d",
			e.Address, e.ExpectedLen, e.ActualLen)
	}
	return fmt.Sprintf("verification mismatch at 0x%08X: read-back differs at offset %d",
		e.Address, e.FirstBadByte)
}

// ReadLengthError reports a memory read that returned a different number
// of bytes than requested.
type ReadLengthError struct {
	Address   uint32
	Requested int
	Got       int
}

func (e *ReadLengthError) Error() string {
	return fmt.Sprintf("read length mismatch at 0x%08X: requested %d bytes, got %d",
		e.Address, e.Requested, e.Got)
}

// ShortWriteError reports an RTT write that the SDK accepted only
// partially.
type ShortWriteError struct {
	Channel int
	Wrote   int
	Want    int
}

func (e *ShortWriteError) Error() string {
	return fmt.Sprintf("rtt short write on channel %d: wrote %d of %d bytes",
		e.Channel, e.Wrote, e.Want)
}
