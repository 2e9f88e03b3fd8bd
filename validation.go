package ctp

import "errors"

// Validator accumulates validation errors across one or more checks,
// letting a caller run every applicable check on a frame before deciding
// whether to discard it, instead of bailing out on the first problem.
type Validator struct {
	allowMultiErrs bool
	accum          []error
}

// NewValidator returns a Validator. When allowMultiErrs is true, Err joins
// every error seen; otherwise only the first is kept.
func NewValidator(allowMultiErrs bool) Validator {
	return Validator{allowMultiErrs: allowMultiErrs}
}

// ResetErr clears v for reuse across frames.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}

// Err returns nil if no error was recorded, the single recorded error if
// exactly one was seen, or the joined set of errors otherwise.
func (v *Validator) Err() error {
	if len(v.accum) == 1 {
		return v.accum[0]
	} else if len(v.accum) == 0 {
		return nil
	}
	return errors.Join(v.accum...)
}

func (v *Validator) gotErr(err error) {
	if len(v.accum) != 0 && !v.allowMultiErrs {
		return
	}
	v.accum = append(v.accum, err)
}

// ValidateSizeV checks f's buffer length against the header and maximum
// frame sizes and records any inconsistency found, using a shared
// Validator instead of returning an error directly (see [Frame.ValidateSize]).
func (f Frame) ValidateSizeV(v *Validator) {
	if err := f.ValidateSize(); err != nil {
		v.gotErr(err)
	}
}

// ValidateAddressing checks that a just-parsed packet is addressed to us
// (myAddr) or to the broadcast address, and that its source address is
// not itself the broadcast address.
func (p Parsed) ValidateAddressing(v *Validator, myAddr Address) {
	if p.Source.IsBroadcast() {
		v.gotErr(ErrBroadcastSrc)
	}
	if p.Dest != myAddr && !p.Dest.IsBroadcast() {
		v.gotErr(ErrMisaddressed)
	}
}

// ValidateChecksum records ErrBadChecksum if p's payload does not match
// its on-wire checksum field.
func (p Parsed) ValidateChecksum(v *Validator) {
	if !p.ChecksumOK() {
		v.gotErr(ErrBadChecksum)
	}
}
