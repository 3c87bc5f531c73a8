package probe

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Transport identifies the electrical protocol between probe and target.
type Transport int

const (
	TransportSWD Transport = iota
	TransportJTAG
	TransportICSP
	TransportSPI
	TransportFINE
	TransportC2
)

func (t Transport) String() string {
	switch t {
	case TransportSWD:
		return "SWD"
	case TransportJTAG:
		return "JTAG"
	case TransportICSP:
		return "ICSP"
	case TransportSPI:
		return "SPI"
	case TransportFINE:
		return "FINE"
	case TransportC2:
		return "C2"
	}
	return "unknown"
}

// ParseTransport resolves a case-insensitive transport name. Unrecognized
// or empty input logs a warning and falls back to SWD, the most common
// transport; it never returns an error.
func ParseTransport(s string, log *logrus.Logger) Transport {
	if log == nil {
		log = logrus.StandardLogger()
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "swd":
		return TransportSWD
	case "jtag":
		return TransportJTAG
	case "icsp":
		return TransportICSP
	case "spi":
		return TransportSPI
	case "fine":
		return TransportFINE
	case "c2":
		return TransportC2
	}
	log.Warnf("Invalid probe-MCU interface %q, using SWD as default", s)
	return TransportSWD
}
