package internal

import (
	"encoding/binary"
	"log/slog"
)

// SlogAddr8 returns a slog.Attr for an 8-byte short address packed into a
// uint64 without allocating a string, for protocol-layer logging where the
// allocation of a hex string per packet would be wasteful.
func SlogAddr8(key string, addr *[8]byte) slog.Attr {
	u64Addr := binary.BigEndian.Uint64(addr[:])
	return slog.Uint64(key, u64Addr)
}
