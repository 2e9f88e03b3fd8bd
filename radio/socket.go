// Package radio defines the capability the sender and receiver engines
// need from the physical layer, plus two concrete backends: an in-process
// [Loopback] for tests and single-process demos, and a [UDPRadio] that
// relays frames over real UDP sockets for multi-process demonstrations.
package radio

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Recv when no frame arrives before the current
// deadline expires, mirroring a blocking socket's timeout condition.
var ErrTimeout = errors.New("radio: recv timed out")

// MaxFrameSize bounds every frame this package's backends will carry.
const MaxFrameSize = 230

// Socket is the radio capability consumed by the sender and receiver
// engines: blocking transmit, blocking receive with a settable timeout,
// a non-blocking mode for opportunistic ACK replies, and an accessor for
// the underlying hardware EUI the short address was derived from.
type Socket interface {
	// Send blocks until frame (at most MaxFrameSize bytes) has been
	// transmitted.
	Send(frame []byte) error
	// Recv blocks for up to the current timeout (or returns immediately
	// if non-blocking) and returns the next received frame.
	Recv() ([]byte, error)
	// SetTimeout configures the blocking duration of subsequent Recv
	// calls.
	SetTimeout(d time.Duration)
	// SetBlocking toggles blocking (true) vs non-blocking (false) mode
	// for subsequent Recv calls.
	SetBlocking(blocking bool)
	// HardwareEUI returns this radio's full hardware address.
	HardwareEUI() []byte
}
