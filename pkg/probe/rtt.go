package probe

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// RttSession manages one RTT streaming session over an established
// probe/MCU connection: single-byte cooperative reads, line reassembly
// with UTC timestamps, optional duplicate logging to a file, and framed
// writes. The caller drives reading by invoking ReadOnce in its own
// loop; the session spawns no goroutines, so the loop stays responsive
// to whatever cancellation the caller observes between iterations.
type RttSession struct {
	ctrl *Controller

	line    strings.Builder
	logFile *os.File
}

// NewRttSession returns an idle RttSession bound to the controller's
// connection.
func NewRttSession(ctrl *Controller) *RttSession {
	return &RttSession{ctrl: ctrl}
}

// Start initializes the RTT channel on the target. The line accumulator
// is reset to empty. If logFile is non-empty, every emitted line is
// duplicated to that file; a failure to open it is logged and ignored
// so RTT startup still proceeds. An SDK-level init failure leaves the
// session idle.
func (s *RttSession) Start(logFile string) error {
	log := s.ctrl.Logger()
	log.Info("Starting RTT...")
	s.line.Reset()
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Errorf("Failed to setup RTT log file: %v", err)
		} else {
			s.logFile = f
		}
	}
	if err := s.ctrl.SDK().RTTStart(); err != nil {
		return fmt.Errorf("rtt init failed: %w", err)
	}
	return nil
}

// ReadOnce polls one byte from the given RTT channel. Carriage returns
// and line feeds are never accumulated; a line feed flushes the
// accumulator as one timestamped logical line. Any other byte is
// appended raw, since embedded firmware logs are not guaranteed to be
// well-formed text.
//
// Returns (false, nil) when the probe/MCU is not ready, which callers
// polling in a tight loop treat as nothing-to-do rather than a failure.
// Returns (true, nil) on any read attempt that did not raise a transport
// error, even when no byte was available.
func (s *RttSession) ReadOnce(channel int) (bool, error) {
	if !s.ctrl.IsReady() {
		return false, nil
	}
	data, err := s.ctrl.SDK().RTTRead(channel, 1)
	if err != nil {
		return false, fmt.Errorf("rtt read failed on channel %d: %w", channel, err)
	}
	if len(data) == 0 {
		return true, nil
	}
	b := data[0]
	if b != '\r' && b != '\n' {
		s.line.WriteByte(b)
	}
	if b == '\n' {
		s.emitLine()
	}
	return true, nil
}

// Write transmits data on the given RTT channel, framed with the
// line-feed-then-null terminator the target-side RTT line reader
// expects.
func (s *RttSession) Write(channel int, data string) error {
	s.ctrl.Logger().Infof("RTT Write: %s", data)
	if !s.ctrl.IsReady() {
		return fmt.Errorf("rtt write: %w", ErrNotReady)
	}
	payload := append([]byte(data), '\n', 0x00)
	n, err := s.ctrl.SDK().RTTWrite(channel, payload)
	if err != nil {
		return fmt.Errorf("rtt write failed on channel %d: %w", channel, err)
	}
	if n != len(payload) {
		return &ShortWriteError{Channel: channel, Wrote: n, Want: len(payload)}
	}
	return nil
}

// Close releases the optional RTT log file. Safe to call when no log
// file was attached.
func (s *RttSession) Close() error {
	if s.logFile == nil {
		return nil
	}
	err := s.logFile.Close()
	s.logFile = nil
	return err
}

// Pending returns the bytes accumulated since the last flushed line.
func (s *RttSession) Pending() string {
	return s.line.String()
}

func (s *RttSession) emitLine() {
	text := fmt.Sprintf("%s %s", rttTimestamp(time.Now().UTC()), s.line.String())
	s.ctrl.Logger().Info(text)
	if s.logFile != nil {
		if _, err := fmt.Fprintln(s.logFile, text); err != nil {
			s.ctrl.Logger().Errorf("Failed to write RTT log file: %v", err)
		}
	}
	s.line.Reset()
}

// rttTimestamp formats a UTC instant as [Y-M-D H:M:S.mmm] with
// millisecond precision.
func rttTimestamp(t time.Time) string {
	return fmt.Sprintf("[%d-%d-%d %d:%d:%d.%03d]",
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000000)
}
