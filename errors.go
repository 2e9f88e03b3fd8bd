package ctp

import "errors"

// Errors returned by the packet codec and protocol engines. Each corresponds
// to one of the error kinds discussed in the protocol design: most are
// recovered locally (retransmission, discard-and-continue) rather than
// propagated as faults.
var (
	ErrShortFrame     = errors.New("ctp: frame shorter than header")
	ErrOversizeFrame  = errors.New("ctp: frame exceeds maximum wire size")
	ErrOversizePay    = errors.New("ctp: payload exceeds maximum fragment size")
	ErrBadChecksum    = errors.New("ctp: checksum mismatch")
	ErrMisaddressed   = errors.New("ctp: frame not addressed to us or broadcast")
	ErrBroadcastSrc   = errors.New("ctp: broadcast address used as source")
	ErrShortAck       = errors.New("ctp: ack frame is not exactly header-sized")
	ErrExhaustedRetry = errors.New("ctp: exhausted retransmission attempts")
	ErrDiscoveryParse = errors.New("ctp: hello payload is neither \"None\" nor a JSON object")
)
