// Package endpoint composes the sender and receiver engines, the
// discovery registry, and a pair of radio sockets into the public API a
// host application uses: connect, hello, listen, send, and recv.
package endpoint

import (
	"bytes"
	"log/slog"

	"github.com/cristiantrapero/ctp-node"
	"github.com/cristiantrapero/ctp-node/discovery"
	"github.com/cristiantrapero/ctp-node/radio"
	"github.com/cristiantrapero/ctp-node/receiver"
	"github.com/cristiantrapero/ctp-node/sender"
)

// Config configures one Endpoint. It carries only plain values: loading
// it from a file or environment is the concern of cmd/ctpnode, not of
// this package.
type Config struct {
	HardwareEUI []byte
	Log         *slog.Logger
}

// Endpoint is the facade a host application drives: one pair of radio
// sockets (send and receive), shared by one sender.Engine and one
// receiver.Engine, plus the discovery registry those engines populate and
// consult.
type Endpoint struct {
	self      ctp.Address
	hwEUI     []byte
	sendEng   sender.Engine
	recvEng   receiver.Engine
	discovery *discovery.Registry
	log       *slog.Logger
	metrics   *metrics
}

// New builds an Endpoint from cfg and a pair of radio sockets: sendSock
// for outbound traffic, recvSock for inbound, matching the legacy
// implementation's two concurrently-usable sockets per node.
func New(cfg Config, sendSock, recvSock radio.Socket) *Endpoint {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	self := ctp.ShortFrom(cfg.HardwareEUI)
	reg := &discovery.Registry{}
	e := &Endpoint{
		self:      self,
		hwEUI:     cfg.HardwareEUI,
		discovery: reg,
		log:       log,
	}
	e.sendEng = sender.Engine{Socket: sendSock, Source: self, Opts: sender.Options{Log: log}}
	e.recvEng = receiver.Engine{Socket: recvSock, Self: self, Discovery: reg, Log: log}
	return e
}

// WithMetrics attaches Prometheus instrumentation to e's subsequent calls.
func (e *Endpoint) WithMetrics(m *metrics) *Endpoint {
	e.metrics = m
	return e
}

// Connect sends the CONNECT handshake literal to dest and waits for its
// ACK, establishing that dest is reachable.
func (e *Endpoint) Connect(dest ctp.Address) sender.Result {
	res := e.sendEng.SendPayload(connectPayload(), dest, true, false)
	e.observeSend(res)
	return res
}

// Hello broadcasts (by default) the current neighbor set as a hello
// packet, requiring no ACK.
func (e *Endpoint) Hello(dest ctp.Address) sender.Result {
	payload := discovery.EncodePayload(e.discovery.List())
	res := e.sendEng.SendPayload(payload, dest, false, true)
	e.observeSend(res)
	return res
}

// ListenResult is the outcome of a Listen call.
type ListenResult struct {
	Sender    ctp.Address
	IsConnect bool
}

// Listen receives one payload from peer (or from whoever answers first,
// if peer is [ctp.Broadcast]) and reports whether it was the CONNECT
// handshake literal.
func (e *Endpoint) Listen(peer ctp.Address) ListenResult {
	res := e.recvEng.RecvPayload(peer)
	e.observeRecv(res)
	return ListenResult{
		Sender:    res.Sender,
		IsConnect: bytes.Equal(res.Payload, connectPayload()),
	}
}

// Send is a direct pass-through to the sender engine.
func (e *Endpoint) Send(dest ctp.Address, payload []byte, ackRequired bool) sender.Result {
	res := e.sendEng.SendPayload(payload, dest, ackRequired, false)
	e.observeSend(res)
	return res
}

// Recv is a direct pass-through to the receiver engine.
func (e *Endpoint) Recv(peer ctp.Address) receiver.Result {
	res := e.recvEng.RecvPayload(peer)
	e.observeRecv(res)
	return res
}

// GetLoraMac returns the endpoint's full hardware EUI as uppercase hex,
// as opposed to GetMyAddr's shortened on-wire form.
func (e *Endpoint) GetLoraMac() string {
	var buf bytes.Buffer
	for _, b := range e.hwEUI {
		const hexDigits = "0123456789ABCDEF"
		buf.WriteByte(hexDigits[b>>4])
		buf.WriteByte(hexDigits[b&0xF])
	}
	return buf.String()
}

// GetMyAddr returns the endpoint's short address as uppercase hex.
func (e *Endpoint) GetMyAddr() string { return e.self.String() }

// DiscoveredNodes returns a snapshot of the discovery registry.
func (e *Endpoint) DiscoveredNodes() map[string][]string { return e.discovery.Snapshot() }

// DiscoveredNodesList returns the known neighbor addresses.
func (e *Endpoint) DiscoveredNodesList() []string { return e.discovery.List() }

func connectPayload() []byte { return []byte("CONNECT") }

func (e *Endpoint) observeSend(res sender.Result) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if res.Failed {
		outcome = "failed"
		e.metrics.failures.Inc()
	}
	e.metrics.sends.WithLabelValues(outcome).Inc()
	e.metrics.retransmits.Add(float64(res.Retransmits))
	e.metrics.fragments.WithLabelValues("tx").Add(float64(res.PacketsSent))
	e.metrics.neighbors.Set(float64(len(e.discovery.List())))
	if res.LastRTT > 0 {
		e.metrics.rtt.Observe(res.LastRTT.Seconds())
	}
}

func (e *Endpoint) observeRecv(res receiver.Result) {
	if e.metrics == nil {
		return
	}
	e.metrics.fragments.WithLabelValues("rx").Inc()
	e.metrics.neighbors.Set(float64(len(e.discovery.List())))
}
