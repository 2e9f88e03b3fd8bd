package ctp

// NewFrame returns a new Frame with data set to buf. An error is returned
// if the buffer is shorter than [HeaderSize]. Callers should still check
// buf's total length against [MaxFrameSize] before transmitting it.
func NewFrame(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, ErrShortFrame
	}
	return Frame{buf: buf}, nil
}

// Frame encapsulates the raw bytes of a CTP packet and provides accessor
// methods over the fixed 20-byte header defined in the wire format,
// without copying the header out into a separate Go struct. See
// [Build] and [Parse] for the higher-level, copying API most callers want.
type Frame struct {
	buf []byte
}

// RawData returns the underlying slice with which the frame was created.
func (f Frame) RawData() []byte { return f.buf }

// SourceAddr returns the packet's source short address.
func (f Frame) SourceAddr() Address {
	var a Address
	copy(a[:], f.buf[0:8])
	return a
}

// SetSourceAddr sets the packet's source short address.
func (f Frame) SetSourceAddr(a Address) { copy(f.buf[0:8], a[:]) }

// DestAddr returns the packet's destination short address.
func (f Frame) DestAddr() Address {
	var a Address
	copy(a[:], f.buf[8:16])
	return a
}

// SetDestAddr sets the packet's destination short address.
func (f Frame) SetDestAddr(a Address) { copy(f.buf[8:16], a[:]) }

// FlagsByte returns the raw flags byte, bits 1 and 3 masked to zero.
func (f Frame) FlagsByte() byte {
	return f.buf[16] &^ (flagReserved1 | flagReserved3)
}

// SetFlagsByte sets the raw flags byte. Bits 1 and 3 are cleared
// regardless of the argument: they are reserved and always transmitted
// as zero.
func (f Frame) SetFlagsByte(flags byte) {
	f.buf[16] = flags &^ (flagReserved1 | flagReserved3)
}

// SeqNum returns the packet's sequence number bit (0 or 1).
func (f Frame) SeqNum() uint8 { return b2i(f.FlagsByte()&flagSeq != 0) }

// AckNum returns the packet's acknowledgement number bit (0 or 1).
func (f Frame) AckNum() uint8 { return b2i(f.FlagsByte()&flagAck != 0) }

// IsLast reports whether the last-fragment marker is set.
func (f Frame) IsLast() bool { return f.FlagsByte()&flagLast != 0 }

// IsHello reports whether the hello (discovery) marker is set.
func (f Frame) IsHello() bool { return f.FlagsByte()&flagHello != 0 }

// PacketKind returns whether this is a DATA or ACK packet.
func (f Frame) PacketKind() Kind {
	if f.FlagsByte()&flagKind != 0 {
		return AckPacket
	}
	return DataPacket
}

// AckRequired reports whether the sender demands an acknowledgement.
func (f Frame) AckRequired() bool { return f.FlagsByte()&flagAckRequired != 0 }

// ChecksumField returns the raw 3-byte checksum field.
func (f Frame) ChecksumField() (tag [ChecksumSize]byte) {
	copy(tag[:], f.buf[17:20])
	return tag
}

// SetChecksumField sets the raw 3-byte checksum field.
func (f Frame) SetChecksumField(tag [ChecksumSize]byte) { copy(f.buf[17:20], tag[:]) }

// Payload returns the payload section of the frame, i.e. everything past
// the fixed header. Empty-payload packets return a zero-length slice.
func (f Frame) Payload() []byte { return f.buf[HeaderSize:] }

func b2i(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// packFlags assembles the single flags byte from its component fields,
// per the bit layout in the wire format.
func packFlags(seq uint8, ackRequired bool, ack uint8, last, hello bool, kind Kind) byte {
	var flags byte
	if seq == 1 {
		flags |= flagSeq
	}
	if ack == 1 {
		flags |= flagAck
	}
	if last {
		flags |= flagLast
	}
	if hello {
		flags |= flagHello
	}
	if kind == AckPacket {
		flags |= flagKind
	}
	if ackRequired {
		flags |= flagAckRequired
	}
	return flags
}

// ValidateSize checks f's buffer against the header and maximum frame
// size, in the style of this module's sibling packages. It returns a
// non-nil error on finding an inconsistency.
func (f Frame) ValidateSize() error {
	if len(f.buf) < HeaderSize {
		return ErrShortFrame
	}
	if len(f.buf) > MaxFrameSize {
		return ErrOversizeFrame
	}
	return nil
}
