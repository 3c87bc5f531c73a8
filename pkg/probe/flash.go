package probe

import (
	"bytes"
	"fmt"
	"os"
)

// TransferRequest describes one firmware flash operation.
type TransferRequest struct {
	FilePath     string
	StartAddress uint32
}

// TransferEngine performs firmware flash-with-verification and memory
// dumps over an established probe/MCU connection. Requires the owning
// controller to be ready (probe and target connected) for every
// operation.
type TransferEngine struct {
	ctrl *Controller

	lastPercentage int
}

// NewTransferEngine returns a TransferEngine bound to the controller's
// connection.
func NewTransferEngine(ctrl *Controller) *TransferEngine {
	return &TransferEngine{ctrl: ctrl, lastPercentage: -1}
}

// Flash programs the firmware file of the request at its start address
// and verifies the written image byte-for-byte against the source file.
// The firmware file is read fully up front; nothing is written if it
// cannot be read. Read/write protection unlock is attempted best-effort
// before programming. A read-back differing from the source in length or
// content is a failure even though bytes were physically written.
//
// onProgress may be nil, in which case progress is logged on every
// percentage change.
func (e *TransferEngine) Flash(req TransferRequest, onProgress ProgressFunc) error {
	log := e.ctrl.Logger()
	log.Infof("Flashing to 0x%08X from FW file %s ...", req.StartAddress, req.FilePath)
	if !e.ctrl.IsReady() {
		return fmt.Errorf("flash: %w", ErrNotReady)
	}
	fwData, err := os.ReadFile(req.FilePath)
	if err != nil {
		return fmt.Errorf("flash: failed to read FW file: %w", err)
	}
	if onProgress == nil {
		e.lastPercentage = -1
		onProgress = e.logProgress
	}

	// Unlock read/write access. Only some MCU families support or need
	// this, so failure is tolerated.
	if err := e.ctrl.SDK().UnlockTarget(); err != nil {
		log.Debugf("Target unlock skipped: %v", err)
	}

	if _, err := e.ctrl.SDK().FlashFile(req.FilePath, req.StartAddress, onProgress); err != nil {
		return fmt.Errorf("flash: programming failed: %w", err)
	}

	readBack, err := e.ctrl.SDK().ReadMemory(req.StartAddress, len(fwData))
	if err != nil {
		return fmt.Errorf("flash: verification read failed: %w", err)
	}
	if len(readBack) != len(fwData) {
		return &VerificationError{
			Address:      req.StartAddress,
			ExpectedLen:  len(fwData),
			ActualLen:    len(readBack),
			FirstBadByte: -1,
		}
	}
	if !bytes.Equal(readBack, fwData) {
		return &VerificationError{
			Address:      req.StartAddress,
			ExpectedLen:  len(fwData),
			ActualLen:    len(readBack),
			FirstBadByte: firstMismatch(fwData, readBack),
		}
	}
	log.Info("Memory flash success")
	return nil
}

// Dump reads length bytes of target memory starting at address and
// writes them to the file at path. A zero length defaults to the
// connected target's flash size. A read returning a different byte count
// than requested fails without writing a truncated file.
func (e *TransferEngine) Dump(path string, address uint32, length int) error {
	log := e.ctrl.Logger()
	log.Infof("Dumping from 0x%08X to FW file %s ...", address, path)
	if !e.ctrl.IsReady() {
		return fmt.Errorf("dump: %w", ErrNotReady)
	}
	if length < 0 {
		return fmt.Errorf("dump: invalid length %d", length)
	}
	if length == 0 {
		length = int(e.ctrl.Target().FlashSize)
	}
	data, err := e.ctrl.SDK().ReadMemory(address, length)
	if err != nil {
		return fmt.Errorf("dump: failed to read MCU memory: %w", err)
	}
	if len(data) != length {
		return &ReadLengthError{Address: address, Requested: length, Got: len(data)}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("dump: failed to write memory to file: %w", err)
	}
	log.Info("Memory dump success")
	return nil
}

// logProgress is the default flash progress handler. It logs only when
// the rounded percentage changes, so repeated callbacks at the same
// percentage do not flood the log.
func (e *TransferEngine) logProgress(action, message string, percentage int) {
	if percentage == e.lastPercentage {
		return
	}
	e.lastPercentage = percentage
	e.ctrl.Logger().Infof("%s %d%%", action, percentage)
	if message != "" {
		e.ctrl.Logger().Info(message)
	}
}

func firstMismatch(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
