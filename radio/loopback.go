package radio

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cristiantrapero/ctp-node/internal"
)

// ErrOversizeFrame is returned by Send when frame exceeds MaxFrameSize.
var ErrOversizeFrame = errors.New("radio: frame exceeds maximum size")

// loopSleep is the poll interval a blocking Recv call uses while waiting
// for a frame to arrive or its deadline to expire.
const loopSleep = time.Millisecond

func checkDeadline(deadline time.Time) error {
	if time.Now().After(deadline) {
		return ErrTimeout
	}
	return nil
}

// pipe is a one-directional, length-prefixed frame queue backed by a byte
// ring buffer, so that two Loopback endpoints can exchange whole frames
// without one write's bytes bleeding into the next.
type pipe struct {
	mu   sync.Mutex
	ring internal.Ring
}

func newPipe(size int) *pipe {
	return &pipe{ring: internal.Ring{Buf: make([]byte, size)}}
}

func (p *pipe) writeFrame(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return ErrOversizeFrame
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(frame)))
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.ring.Write(hdr[:]); err != nil {
		return err
	}
	if len(frame) > 0 {
		if _, err := p.ring.Write(frame); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipe) readFrame(timeout time.Duration, blocking bool) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		p.mu.Lock()
		if p.ring.Buffered() >= 2 {
			var hdr [2]byte
			p.ring.ReadPeek(hdr[:])
			flen := int(binary.BigEndian.Uint16(hdr[:]))
			if p.ring.Buffered() >= 2+flen {
				p.ring.ReadDiscard(2)
				frame := make([]byte, flen)
				if flen > 0 {
					p.ring.Read(frame)
				}
				p.mu.Unlock()
				return frame, nil
			}
		}
		p.mu.Unlock()
		if !blocking {
			return nil, ErrTimeout
		}
		if err := checkDeadline(deadline); err != nil {
			return nil, err
		}
		time.Sleep(loopSleep)
	}
}

// Loopback is an in-process [Socket] backend: two Loopback values created
// together by [NewLoopbackPair] exchange frames directly in memory,
// standing in for the physical LoRa link in tests and single-process
// demonstrations.
type Loopback struct {
	hwEUI    [8]byte
	in, out  *pipe
	timeout  time.Duration
	blocking bool
}

// NewLoopbackPair returns two connected Loopback sockets, each one's sent
// frames becoming the other's received frames. euiA and euiB are each
// copied into the low bytes of an 8-byte hardware EUI (or zero-padded if
// shorter).
func NewLoopbackPair(euiA, euiB []byte) (a, b *Loopback) {
	toA, toB := newPipe(4096), newPipe(4096)
	a = &Loopback{in: toA, out: toB, timeout: 5 * time.Second, blocking: true}
	b = &Loopback{in: toB, out: toA, timeout: 5 * time.Second, blocking: true}
	copy(a.hwEUI[8-min8(len(euiA)):], euiA)
	copy(b.hwEUI[8-min8(len(euiB)):], euiB)
	return a, b
}

// Handle returns a new Loopback sharing l's underlying pipes but with its
// own timeout and blocking-mode state. Callers that want independent send
// and receive sockets to the same peer, as the endpoint facade requires,
// should hold one handle per role rather than share a single Loopback.
func (l *Loopback) Handle() *Loopback {
	return &Loopback{hwEUI: l.hwEUI, in: l.in, out: l.out, timeout: l.timeout, blocking: l.blocking}
}

func min8(n int) int {
	if n > 8 {
		return 8
	}
	return n
}

// Send transmits frame to the peer Loopback.
func (l *Loopback) Send(frame []byte) error { return l.out.writeFrame(frame) }

// Recv receives the next frame sent by the peer, blocking per the current
// timeout and blocking mode.
func (l *Loopback) Recv() ([]byte, error) { return l.in.readFrame(l.timeout, l.blocking) }

// SetTimeout configures the blocking duration of subsequent Recv calls.
func (l *Loopback) SetTimeout(d time.Duration) { l.timeout = d }

// SetBlocking toggles blocking vs non-blocking mode for subsequent Recv
// calls.
func (l *Loopback) SetBlocking(blocking bool) { l.blocking = blocking }

// HardwareEUI returns this endpoint's 8-byte hardware address.
func (l *Loopback) HardwareEUI() []byte { return l.hwEUI[:] }

var _ Socket = (*Loopback)(nil)
