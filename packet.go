package ctp

// BuildParams collects the fields needed to assemble one on-wire packet.
// It mirrors the fields the original node software's packet builder took
// positionally, named here for clarity.
type BuildParams struct {
	Source      Address
	Dest        Address
	Seq         uint8 // 0 or 1
	Ack         uint8 // 0 or 1, carried for DATA and ACK packets alike
	Kind        Kind
	Last        bool // marks the final fragment of a multi-fragment message
	Hello       bool // marks a discovery packet
	AckRequired bool
	Payload     []byte
}

// Build assembles a complete wire packet from p, returning the encoded
// bytes. The checksum field is computed over p.Payload and written into
// the header only for a non-empty-payload DATA packet; ACK packets and
// empty-payload DATA packets carry a zero-padded checksum field instead,
// since there is no payload for a checksum to protect. Bits 1 and 3 of
// the flags byte are always transmitted as zero.
func Build(p BuildParams) ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, ErrOversizePay
	}
	if p.Source.IsBroadcast() {
		return nil, ErrBroadcastSrc
	}
	buf := make([]byte, HeaderSize+len(p.Payload))
	f, err := NewFrame(buf)
	if err != nil {
		return nil, err
	}
	f.SetSourceAddr(p.Source)
	f.SetDestAddr(p.Dest)
	f.SetFlagsByte(packFlags(p.Seq, p.AckRequired, p.Ack, p.Last, p.Hello, p.Kind))
	if p.Kind == DataPacket && len(p.Payload) > 0 {
		f.SetChecksumField(Checksum(p.Payload))
	}
	copy(f.Payload(), p.Payload)
	return buf, nil
}

// Parsed is the decoded form of a received wire packet.
type Parsed struct {
	Source      Address
	Dest        Address
	Seq         uint8
	Ack         uint8
	Kind        Kind
	Last        bool
	Hello       bool
	AckRequired bool
	Checksum    [ChecksumSize]byte
	Payload     []byte
}

// ChecksumOK reports whether p's checksum field matches what [Build]
// would have written: a real SHA-256-derived checksum over the payload
// for a non-empty-payload DATA packet, or a zero-padded field for
// anything else (ACK packets and empty-payload DATA packets).
func (p Parsed) ChecksumOK() bool {
	if p.Kind != DataPacket || len(p.Payload) == 0 {
		return p.Checksum == [ChecksumSize]byte{}
	}
	return Checksum(p.Payload) == p.Checksum
}

// Parse decodes raw into a Parsed packet. It validates overall frame size
// but does not verify the checksum or addressing; callers check those
// with [Parsed.ChecksumOK] and their own address comparisons, matching the
// protocol's separate accept/reject stages.
func Parse(raw []byte) (Parsed, error) {
	f, err := NewFrame(raw)
	if err != nil {
		return Parsed{}, err
	}
	if err := f.ValidateSize(); err != nil {
		return Parsed{}, err
	}
	return Parsed{
		Source:      f.SourceAddr(),
		Dest:        f.DestAddr(),
		Seq:         f.SeqNum(),
		Ack:         f.AckNum(),
		Kind:        f.PacketKind(),
		Last:        f.IsLast(),
		Hello:       f.IsHello(),
		AckRequired: f.AckRequired(),
		Checksum:    f.ChecksumField(),
		Payload:     append([]byte(nil), f.Payload()...),
	}, nil
}
