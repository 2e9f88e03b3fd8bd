package ctp

import (
	"encoding/hex"

	"github.com/cristiantrapero/ctp-node/internal"
)

// AddrSize is the length in bytes of a short address on the wire.
const AddrSize = 8

// Address is an 8-byte short address: the low 8 bytes of a node's radio
// hardware EUI, used throughout the wire format in place of the full EUI.
// The zero value is [Broadcast], matching the original "any address"
// sentinel of the protocol.
type Address [AddrSize]byte

// Broadcast is the all-zero address. It denotes "any sender" on receive
// and "every neighbor" on send, and must never appear as a source address
// on an outgoing packet (see [Address.IsBroadcast]).
var Broadcast Address

// IsBroadcast reports whether a is the all-zero broadcast address.
func (a Address) IsBroadcast() bool { return internal.IsZeroed(a) }

// String renders a in the uppercase hex form used by the endpoint facade
// and by discovery payloads.
func (a Address) String() string {
	var buf [AddrSize * 2]byte
	hex.Encode(buf[:], a[:])
	for i, c := range buf {
		if c >= 'a' && c <= 'z' {
			buf[i] = c - ('a' - 'A')
		}
	}
	return string(buf[:])
}

// ParseAddress decodes an uppercase- or lowercase-hex short address, as
// produced by [Address.String] or carried in a discovery payload's keys.
func ParseAddress(s string) (Address, error) {
	var a Address
	if len(s) != AddrSize*2 {
		return a, ErrShortFrame
	}
	_, err := hex.Decode(a[:], []byte(s))
	return a, err
}

// ShortFrom extracts the low AddrSize bytes of a full hardware EUI,
// mirroring the original protocol's "shortening" of a sender address
// before it is placed in an outgoing packet.
func ShortFrom(eui []byte) Address {
	var a Address
	if len(eui) >= AddrSize {
		copy(a[:], eui[len(eui)-AddrSize:])
	} else {
		copy(a[AddrSize-len(eui):], eui)
	}
	return a
}
