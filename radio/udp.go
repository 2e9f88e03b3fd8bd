package radio

import (
	"errors"
	"net"
	"time"
)

// UDPRadio relays CTP frames over a UDP socket, standing in for a real
// LoRa radio in multi-process demonstrations where a single machine runs
// two or more ctpnode instances. Every frame is sent as exactly one UDP
// datagram; no fragmentation beyond what CTP itself performs is needed
// since a datagram comfortably holds MaxFrameSize bytes.
type UDPRadio struct {
	conn     *net.UDPConn
	peer     *net.UDPAddr
	hwEUI    [8]byte
	timeout  time.Duration
	blocking bool
}

// NewUDPRadio opens a UDP socket bound to localAddr and sends to peerAddr.
// hwEUI identifies this endpoint's hardware address; it is not derived
// from the network address, since a LoRa hardware EUI and a UDP endpoint
// address are unrelated namespaces.
func NewUDPRadio(localAddr, peerAddr string, hwEUI []byte) (*UDPRadio, error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, err
	}
	raddr, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	u := &UDPRadio{conn: conn, peer: raddr, timeout: 5 * time.Second, blocking: true}
	copy(u.hwEUI[8-min8(len(hwEUI)):], hwEUI)
	return u, nil
}

// Send transmits frame as one UDP datagram to the configured peer.
func (u *UDPRadio) Send(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return ErrOversizeFrame
	}
	_, err := u.conn.WriteToUDP(frame, u.peer)
	return err
}

// Recv receives the next datagram, blocking per the current timeout and
// blocking mode, translating a UDP read timeout into [ErrTimeout].
func (u *UDPRadio) Recv() ([]byte, error) {
	if u.blocking {
		u.conn.SetReadDeadline(time.Now().Add(u.timeout))
	} else {
		u.conn.SetReadDeadline(time.Now().Add(time.Microsecond))
	}
	buf := make([]byte, MaxFrameSize)
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return buf[:n], nil
}

// SetTimeout configures the blocking duration of subsequent Recv calls.
func (u *UDPRadio) SetTimeout(d time.Duration) { u.timeout = d }

// SetBlocking toggles blocking vs non-blocking mode for subsequent Recv
// calls.
func (u *UDPRadio) SetBlocking(blocking bool) { u.blocking = blocking }

// HardwareEUI returns this endpoint's 8-byte hardware address.
func (u *UDPRadio) HardwareEUI() []byte { return u.hwEUI[:] }

// Close releases the underlying UDP socket.
func (u *UDPRadio) Close() error { return u.conn.Close() }

var _ Socket = (*UDPRadio)(nil)
