// Package sender implements the stop-and-wait send engine: it fragments a
// payload, transmits each fragment with up to three attempts on a linear
// backoff, and adapts its ACK timeout from observed round-trip samples.
package sender

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/internal"
	"github.com/cristiantrapero/ctp-node/radio"
	"github.com/cristiantrapero/ctp-node/rtt"
)

// Result reports the outcome of one SendPayload call. Unlike the legacy
// protocol's overloaded -1 "FAILED" return value, failure is its own
// field so a caller cannot mistake it for a valid packet count.
type Result struct {
	// Receiver is the effective receiver address: the caller's
	// destination, or (for a broadcast send) whichever neighbor answered
	// the first ACK.
	Receiver ctp.Address
	// PacketsSent counts every transmission attempt, including retries.
	PacketsSent int
	// Retransmits counts every failed attempt per fragment, including the
	// first: a transmit error, an ACK timeout, or a rejected/malformed ACK
	// all count, matching the original node software's attempt accounting.
	Retransmits int
	// Failed reports whether some fragment exhausted its retry budget.
	Failed bool
	// FailedFragment is the zero-based index of the fragment that
	// exhausted its retries, or -1 if Failed is false.
	FailedFragment int
	Elapsed        time.Duration
	// LastRTT is the most recent round-trip sample folded into the
	// estimator, or 0 if ackRequired was false or no ACK ever arrived.
	LastRTT time.Duration
}

// Options configures one Engine. Limiter, when non-nil, is consulted
// before every transmission to enforce a LoRa duty-cycle budget; a nil
// Limiter imposes no limit, matching hardware that already caps airtime
// in its radio driver.
type Options struct {
	Log     *slog.Logger
	Limiter *rate.Limiter
}

// Engine drives one direction of the stop-and-wait protocol over a
// [radio.Socket]. An Engine must not be used for two concurrent
// SendPayload calls, since both would transmit and wait for ACKs on the
// same Socket. The sequence and ack bits themselves are call-scoped state
// here (unlike the legacy implementation, where they lived on the endpoint
// — see the per-call-state design note this package resolves).
type Engine struct {
	Socket radio.Socket
	Source ctp.Address
	Opts   Options
}

// SendPayload fragments payload into ≤210-byte chunks and transmits each
// in order to dest (which may be [ctp.Broadcast]), waiting for an ACK
// between fragments unless ackRequired is false. hello marks every
// fragment as a discovery packet.
func (e *Engine) SendPayload(payload []byte, dest ctp.Address, ackRequired, hello bool) Result {
	start := time.Now()
	res := Result{Receiver: dest, FailedFragment: -1}

	fragments := fragment(payload)
	var est rtt.Estimator
	seq, ack := uint8(0), uint8(1)
	log := e.Opts.Log
	if log == nil {
		log = slog.Default()
	}

	for i, frag := range fragments {
		last := i == len(fragments)-1
		corrID := uuid.New()
		pkt, err := ctp.Build(ctp.BuildParams{
			Source:      e.Source,
			Dest:        dest,
			Seq:         seq,
			Ack:         ack,
			Kind:        ctp.DataPacket,
			Last:        last,
			Hello:       hello,
			AckRequired: ackRequired,
			Payload:     frag,
		})
		if err != nil {
			log.Error("sender: build failed", "err", err, "corr", corrID)
			res.Failed = true
			res.FailedFragment = i
			break
		}

		accepted := false
		retry := internal.NewRetry()
		for !retry.Exhausted() {
			retry.Next()
			if e.Opts.Limiter != nil {
				e.Opts.Limiter.Wait(context.Background())
			}
			e.Socket.SetBlocking(true)
			sendTime := time.Now()
			if err := e.Socket.Send(pkt); err != nil {
				log.Warn("sender: transmit error", "err", err, "corr", corrID, internal.SlogAddr8("dest", (*[8]byte)(&dest)))
				res.PacketsSent++
				res.Retransmits++
				continue
			}
			res.PacketsSent++

			if !ackRequired {
				accepted = true
				break
			}

			e.Socket.SetTimeout(est.Timeout())
			ackRaw, err := e.Socket.Recv()
			if err != nil {
				log.Debug("sender: ack wait timed out", "corr", corrID)
				res.Retransmits++
				continue
			}
			recvTime := time.Now()

			if len(ackRaw) != ctp.HeaderSize {
				log.Warn("sender: malformed ack", "err", ctp.ErrShortAck, "corr", corrID)
				res.Retransmits++
				continue
			}
			ackPkt, err := ctp.Parse(ackRaw)
			if err != nil {
				log.Warn("sender: malformed ack", "err", err, "corr", corrID)
				res.Retransmits++
				continue
			}
			if dest.IsBroadcast() {
				dest = ackPkt.Source
			}
			if ackPkt.Kind == ctp.AckPacket && ackPkt.Ack == seq && e.Source == ackPkt.Dest && dest == ackPkt.Source {
				sample := recvTime.Sub(sendTime)
				est.Update(sample)
				res.LastRTT = sample
				accepted = true
				break
			}
			log.Debug("sender: ack rejected", "corr", corrID)
			res.Retransmits++
		}

		if !accepted {
			log.Error("sender: fragment exhausted retries", "err", ctp.ErrExhaustedRetry, "fragment", i, "corr", corrID)
			res.Failed = true
			res.FailedFragment = i
			break
		}
		if last {
			break
		}
		seq = 1 - seq
		ack = 1 - ack
	}

	res.Receiver = dest
	res.Elapsed = time.Since(start)
	return res
}

// fragment splits payload into chunks of at most ctp.MaxPayloadSize
// bytes, always returning at least one (possibly empty) fragment so that
// a zero-length payload still produces one transmitted packet.
func fragment(payload []byte) [][]byte {
	if len(payload) == 0 {
		return [][]byte{nil}
	}
	var out [][]byte
	for len(payload) > 0 {
		n := ctp.MaxPayloadSize
		if n > len(payload) {
			n = len(payload)
		}
		out = append(out, payload[:n])
		payload = payload[n:]
	}
	return out
}
