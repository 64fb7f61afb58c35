// FilePath: internal/transport/transport.go
package transport

import (
	"bytes"
	"strings"
	"time"

	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/errors"
	nuts "github.com/vaudience/go-nuts"
	"go.bug.st/serial"
)

// Transport is the line-oriented link to the sensor station. Exactly two
// implementations exist, selected once at startup from configuration:
// the physical serial link and the null transport for testing mode.
type Transport interface {
	// Open establishes the link. Safe to call again after a failure.
	Open() error
	// ReadLine blocks up to the configured read timeout and returns one
	// newline-terminated line with the terminator stripped. A timeout
	// yields an empty string and no error.
	ReadLine() (string, error)
	// IsAlive reflects the actual link state, not object construction.
	IsAlive() bool
	Close() error
}

// SerialTransport reads the station's wire protocol from a serial port.
type SerialTransport struct {
	cfg  config.SerialConfig
	port serial.Port
	buf  bytes.Buffer
}

func NewSerialTransport(cfg config.SerialConfig) *SerialTransport {
	return &SerialTransport{cfg: cfg}
}

func (t *SerialTransport) Open() error {
	mode := &serial.Mode{BaudRate: t.cfg.Baud}
	port, err := serial.Open(t.cfg.Port, mode)
	if err != nil {
		return errors.NewTransportError("failed to open serial port "+t.cfg.Port, err)
	}
	if err := port.SetReadTimeout(t.cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return errors.NewTransportError("failed to set serial read timeout", err)
	}
	t.port = port
	t.buf.Reset()
	nuts.L.Infof("[Transport] Serial port %s open at %d baud", t.cfg.Port, t.cfg.Baud)
	return nil
}

// ReadLine accumulates bytes across calls until a newline arrives, so a
// line split over several reads is not lost. The per-call read timeout
// keeps the ingestion loop responsive to shutdown.
func (t *SerialTransport) ReadLine() (string, error) {
	if t.port == nil {
		return "", errors.NewTransportError("serial port not open", nil)
	}

	if line, ok := t.takeLine(); ok {
		return line, nil
	}

	chunk := make([]byte, 256)
	n, err := t.port.Read(chunk)
	if err != nil {
		t.markDead()
		return "", errors.NewTransportError("serial read failed", err)
	}
	if n > 0 {
		t.buf.Write(chunk[:n])
	}

	if line, ok := t.takeLine(); ok {
		return line, nil
	}
	// timeout or incomplete line
	return "", nil
}

func (t *SerialTransport) takeLine() (string, bool) {
	data := t.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}
	line := string(data[:idx])
	t.buf.Next(idx + 1)
	return strings.TrimRight(line, "\r"), true
}

func (t *SerialTransport) IsAlive() bool {
	if t.port == nil {
		return false
	}
	// The serial library surfaces a dead link through modem status
	// queries without consuming data.
	if _, err := t.port.GetModemStatusBits(); err != nil {
		return false
	}
	return true
}

func (t *SerialTransport) markDead() {
	if t.port != nil {
		_ = t.port.Close()
		t.port = nil
	}
}

func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return errors.NewTransportError("failed to close serial port", err)
	}
	nuts.L.Infof("[Transport] Serial port closed")
	return nil
}

// NullTransport is the testing-mode link: always open, never produces
// data. Simulated readings are injected at the ingestion loop level and
// bypass the transport entirely.
type NullTransport struct {
	open        bool
	readTimeout time.Duration
}

func NewNullTransport(readTimeout time.Duration) *NullTransport {
	return &NullTransport{readTimeout: readTimeout}
}

func (t *NullTransport) Open() error {
	t.open = true
	nuts.L.Infof("[Transport] Null transport open (testing mode)")
	return nil
}

func (t *NullTransport) ReadLine() (string, error) {
	if !t.open {
		return "", errors.NewTransportError("null transport not open", nil)
	}
	time.Sleep(t.readTimeout)
	return "", nil
}

func (t *NullTransport) IsAlive() bool {
	return t.open
}

func (t *NullTransport) Close() error {
	t.open = false
	return nil
}
