// Package receiver implements the stop-and-wait receive engine: it
// accepts fragments in order from one sender (or the first sender to
// reach it, for a broadcast listen), ACKs each, and reassembles the
// payload.
package receiver

import (
	"log/slog"
	"time"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/discovery"
	"github.com/cristiantrapero/ctp-node/internal"
	"github.com/cristiantrapero/ctp-node/radio"
)

// Result is the outcome of one RecvPayload call.
type Result struct {
	Payload []byte
	Sender  ctp.Address
	Elapsed time.Duration
}

// Engine drives the receive side of the protocol over a [radio.Socket].
// Like [sender.Engine], it must not be shared across two concurrent
// RecvPayload calls.
type Engine struct {
	Socket    radio.Socket
	Self      ctp.Address
	Discovery *discovery.Registry
	Log       *slog.Logger
}

// RecvPayload blocks until it has reassembled one complete payload from
// sender (or from whichever address first answers, if sender is
// [ctp.Broadcast]), or indefinitely if no valid terminal fragment ever
// arrives — matching the legacy protocol's unbounded receive loop.
//
// On receiving a duplicate of the last accepted fragment (same checksum),
// the payload is appended a second time and the ACK is re-sent. This
// reproduces the legacy implementation's behavior exactly; a caller that
// cannot tolerate a doubled fragment should de-duplicate downstream,
// since suppressing it here would diverge from the documented
// wire-observable outcome.
func (e *Engine) RecvPayload(sender ctp.Address) Result {
	start := time.Now()
	log := e.Log
	if log == nil {
		log = slog.Default()
	}

	senderKnown := !sender.IsBroadcast()
	ackRequired := true
	nextAck := uint8(1)
	var rcvd []byte
	internal.SliceReuse(&rcvd, ctp.MaxPayloadSize)
	var lastChecksum [ctp.ChecksumSize]byte
	haveLast := false

	e.Socket.SetTimeout(5 * time.Second)
	for {
		e.Socket.SetBlocking(true)
		raw, err := e.Socket.Recv()
		if err != nil {
			log.Debug("receiver: recv timed out, retrying")
			continue
		}
		if f, ferr := ctp.NewFrame(raw); ferr == nil {
			v := ctp.NewValidator(false)
			f.ValidateSizeV(&v)
			if err := v.Err(); err != nil {
				log.Warn("receiver: frame failed size validation", "err", err)
				continue
			}
		}
		pkt, err := ctp.Parse(raw)
		if err != nil {
			log.Warn("receiver: malformed frame discarded", "err", err)
			continue
		}

		addrV := ctp.NewValidator(true)
		pkt.ValidateAddressing(&addrV, e.Self)
		if err := addrV.Err(); err != nil {
			log.Debug("receiver: discarding frame", "err", err)
			continue
		}

		pktAckRequired := pkt.AckRequired
		if pkt.Hello {
			pktAckRequired = false
			if err := e.Discovery.Register(pkt.Source.String(), pkt.Payload); err != nil {
				log.Warn("receiver: discovery payload parse failed", "err", err)
			}
		}

		if !senderKnown {
			sender = pkt.Source
			senderKnown = true
		}

		checksumOK := pkt.ChecksumOK()
		switch {
		case checksumOK && pkt.Ack == nextAck && pkt.Source == sender:
			rcvd = append(rcvd, pkt.Payload...)
			lastChecksum = pkt.Checksum
			haveLast = true
			ackRequired = pktAckRequired

			if ackRequired {
				nextAck = 1 - pkt.Ack
				ackPkt, err := ctp.Build(ctp.BuildParams{
					Source:      e.Self,
					Dest:        pkt.Source,
					Seq:         pkt.Seq,
					Ack:         nextAck,
					Kind:        ctp.AckPacket,
					Last:        pkt.Last,
					Hello:       pkt.Hello,
					AckRequired: pktAckRequired,
				})
				if err == nil {
					e.Socket.SetBlocking(false)
					if err := e.Socket.Send(ackPkt); err != nil {
						log.Warn("receiver: ack send failed", "err", err)
					}
				}
				if pkt.Last {
					return Result{Payload: rcvd, Sender: sender, Elapsed: time.Since(start)}
				}
			} else {
				return Result{Payload: rcvd, Sender: sender, Elapsed: time.Since(start)}
			}

		case checksumOK && haveLast && lastChecksum == pkt.Checksum && pkt.Source == sender:
			rcvd = append(rcvd, pkt.Payload...)
			if pktAckRequired {
				// Resend the same ACK value already computed the first time
				// this fragment was accepted (nextAck is unchanged): the
				// sender never advanced, so it is still waiting for exactly
				// that value, not a fresh flip of this duplicate's own ack bit.
				ackPkt, err := ctp.Build(ctp.BuildParams{
					Source:      e.Self,
					Dest:        pkt.Source,
					Seq:         pkt.Seq,
					Ack:         nextAck,
					Kind:        ctp.AckPacket,
					Last:        pkt.Last,
					Hello:       pkt.Hello,
					AckRequired: pktAckRequired,
				})
				if err == nil {
					e.Socket.SetBlocking(false)
					if err := e.Socket.Send(ackPkt); err != nil {
						log.Warn("receiver: duplicate-ack send failed", "err", err)
					}
				}
				if pkt.Last {
					return Result{Payload: rcvd, Sender: sender, Elapsed: time.Since(start)}
				}
			} else {
				return Result{Payload: rcvd, Sender: sender, Elapsed: time.Since(start)}
			}

		default:
			var reasonV ctp.Validator
			pkt.ValidateChecksum(&reasonV)
			src := pkt.Source
			log.Debug("receiver: packet rejected", "seq", pkt.Seq, "ack", pkt.Ack, "err", reasonV.Err(), internal.SlogAddr8("source", (*[8]byte)(&src)))
		}
	}
}
