package sender_test

import (
	"testing"
	"time"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/radio"
	"github.com/cristiantrapero/ctp-node/sender"
)

// scriptedSocket is a radio.Socket test double that answers Recv from a
// pre-programmed queue of responses and never blocks on real wall-clock
// time, unlike radio.Loopback, which models real link timing and is used
// instead for endpoint-level integration tests.
type scriptedSocket struct {
	sent   [][]byte
	script []func(lastSent []byte) ([]byte, error)
}

func (s *scriptedSocket) Send(frame []byte) error {
	s.sent = append(s.sent, append([]byte(nil), frame...))
	return nil
}

func (s *scriptedSocket) Recv() ([]byte, error) {
	if len(s.script) == 0 {
		return nil, radio.ErrTimeout
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next(s.sent[len(s.sent)-1])
}

func (s *scriptedSocket) SetTimeout(time.Duration) {}
func (s *scriptedSocket) SetBlocking(bool)         {}
func (s *scriptedSocket) HardwareEUI() []byte      { return []byte{0xDE, 0xAD, 0xBE, 0xEF} }

var _ radio.Socket = (*scriptedSocket)(nil)

func timeoutStep(lastSent []byte) ([]byte, error) { return nil, radio.ErrTimeout }

// ackStep builds an acceptable ACK for whatever DATA frame was just sent,
// as if peer had received it and answered immediately.
func ackStep(peer ctp.Address, source ctp.Address) func([]byte) ([]byte, error) {
	return func(lastSent []byte) ([]byte, error) {
		data, err := ctp.Parse(lastSent)
		if err != nil {
			return nil, err
		}
		return ctp.Build(ctp.BuildParams{
			Source: peer,
			Dest:   source,
			Seq:    data.Seq,
			Ack:    data.Seq,
			Kind:   ctp.AckPacket,
		})
	}
}

var (
	srcAddr  = ctp.Address{1}
	peerAddr = ctp.Address{2}
)

func TestSendPayloadSingleFragmentSuccess(t *testing.T) {
	sock := &scriptedSocket{script: []func([]byte) ([]byte, error){ackStep(peerAddr, srcAddr)}}
	eng := sender.Engine{Socket: sock, Source: srcAddr}

	res := eng.SendPayload([]byte("HELLO"), peerAddr, true, false)

	if res.Failed {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if res.PacketsSent != 1 {
		t.Fatalf("PacketsSent = %d, want 1", res.PacketsSent)
	}
	if res.Retransmits != 0 {
		t.Fatalf("Retransmits = %d, want 0", res.Retransmits)
	}
	if res.Receiver != peerAddr {
		t.Fatalf("Receiver = %x, want %x", res.Receiver, peerAddr)
	}
	if len(sock.sent) != 1 {
		t.Fatalf("expected exactly one frame transmitted, got %d", len(sock.sent))
	}
}

func TestSendPayloadRetransmitsThenSucceeds(t *testing.T) {
	// 250-byte payload fragments into 210 + 40 bytes. The ACK for the
	// first fragment is lost once; the retry succeeds, and the second
	// fragment's ACK arrives on the first attempt: PacketsSent = 3,
	// Retransmits = 1.
	sock := &scriptedSocket{script: []func([]byte) ([]byte, error){
		timeoutStep,
		ackStep(peerAddr, srcAddr),
		ackStep(peerAddr, srcAddr),
	}}
	eng := sender.Engine{Socket: sock, Source: srcAddr}

	res := eng.SendPayload(make([]byte, 250), peerAddr, true, false)

	if res.Failed {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if res.PacketsSent != 3 {
		t.Fatalf("PacketsSent = %d, want 3", res.PacketsSent)
	}
	if res.Retransmits != 1 {
		t.Fatalf("Retransmits = %d, want 1", res.Retransmits)
	}
}

func TestSendPayloadExhaustsRetriesAndAbortsRemainingFragments(t *testing.T) {
	// 500-byte payload fragments into three pieces, but the peer never
	// answers: the first fragment burns all three attempts and the send
	// fails without ever touching fragments two or three.
	sock := &scriptedSocket{}
	eng := sender.Engine{Socket: sock, Source: srcAddr}

	res := eng.SendPayload(make([]byte, 500), peerAddr, true, false)

	if !res.Failed {
		t.Fatal("expected Failed = true")
	}
	if res.FailedFragment != 0 {
		t.Fatalf("FailedFragment = %d, want 0", res.FailedFragment)
	}
	if res.PacketsSent != 3 {
		t.Fatalf("PacketsSent = %d, want 3", res.PacketsSent)
	}
	if res.Retransmits != 3 {
		t.Fatalf("Retransmits = %d, want 3", res.Retransmits)
	}
}

func TestSendPayloadWithoutAckRequiredSendsOnceAndReturnsImmediately(t *testing.T) {
	sock := &scriptedSocket{}
	eng := sender.Engine{Socket: sock, Source: srcAddr}

	res := eng.SendPayload([]byte("hello"), ctp.Broadcast, false, true)

	if res.Failed {
		t.Fatalf("unexpected failure: %+v", res)
	}
	if res.PacketsSent != 1 {
		t.Fatalf("PacketsSent = %d, want 1", res.PacketsSent)
	}
	if len(sock.sent) != 1 {
		t.Fatalf("expected one frame sent without waiting for an ACK, got %d", len(sock.sent))
	}
}

func TestSendPayloadAlternatesSeqAndAckAcrossFragments(t *testing.T) {
	sock := &scriptedSocket{script: []func([]byte) ([]byte, error){
		ackStep(peerAddr, srcAddr),
		ackStep(peerAddr, srcAddr),
		ackStep(peerAddr, srcAddr),
	}}
	eng := sender.Engine{Socket: sock, Source: srcAddr}

	// 630 bytes = 3 full fragments (210*3), so every ACK round trips on
	// the first attempt and each fragment's seq/ack bits are observable.
	eng.SendPayload(make([]byte, 630), peerAddr, true, false)

	if len(sock.sent) != 3 {
		t.Fatalf("expected 3 fragments sent, got %d", len(sock.sent))
	}
	wantSeq := []uint8{0, 1, 0}
	wantAck := []uint8{1, 0, 1}
	for i, raw := range sock.sent {
		p, err := ctp.Parse(raw)
		if err != nil {
			t.Fatalf("fragment %d: parse: %v", i, err)
		}
		if p.Seq != wantSeq[i] {
			t.Errorf("fragment %d: seq = %d, want %d", i, p.Seq, wantSeq[i])
		}
		if p.Ack != wantAck[i] {
			t.Errorf("fragment %d: ack = %d, want %d", i, p.Ack, wantAck[i])
		}
		if p.Last != (i == 2) {
			t.Errorf("fragment %d: Last = %v, want %v", i, p.Last, i == 2)
		}
	}
}
