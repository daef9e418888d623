// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

package cttypes

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Reader is a bounds-checked cursor over TLS presentation-language data.
// Failed reads return *TruncatedInputError naming the field being read.
type Reader struct {
	s   cryptobyte.String
	end int // offset just past the last byte of s within the outermost input
}

func NewReader(data []byte) *Reader {
	return &Reader{s: cryptobyte.String(data), end: len(data)}
}

// Offset returns the position of the next unread byte within the outermost input.
func (r *Reader) Offset() int {
	return r.end - len(r.s)
}

func (r *Reader) Remaining() int {
	return len(r.s)
}

func (r *Reader) Empty() bool {
	return r.s.Empty()
}

func (r *Reader) truncated(context string, offset int) error {
	return &TruncatedInputError{Context: context, Offset: offset}
}

func (r *Reader) ReadUint8(context string) (uint8, error) {
	var v uint8
	offset := r.Offset()
	if !r.s.ReadUint8(&v) {
		return 0, r.truncated(context, offset)
	}
	return v, nil
}

func (r *Reader) ReadUint16(context string) (uint16, error) {
	var v uint16
	offset := r.Offset()
	if !r.s.ReadUint16(&v) {
		return 0, r.truncated(context, offset)
	}
	return v, nil
}

func (r *Reader) ReadUint64(context string) (uint64, error) {
	var v uint64
	offset := r.Offset()
	if !r.s.ReadUint64(&v) {
		return 0, r.truncated(context, offset)
	}
	return v, nil
}

// ReadFixed reads exactly n bytes.  The returned slice aliases the input.
func (r *Reader) ReadFixed(n int, context string) ([]byte, error) {
	var v []byte
	offset := r.Offset()
	if !r.s.ReadBytes(&v, n) {
		return nil, r.truncated(context, offset)
	}
	return v, nil
}

// ReadLengthPrefixed reads a big-endian length of width bytes (1, 2, or 3)
// followed by that many bytes.
func (r *Reader) ReadLengthPrefixed(width int, context string) ([]byte, error) {
	child, err := r.ReadLengthPrefixedReader(width, context)
	if err != nil {
		return nil, err
	}
	return child.ReadRest(), nil
}

// ReadLengthPrefixedReader is like ReadLengthPrefixed but returns a Reader
// over the body whose offsets are relative to the outermost input.
func (r *Reader) ReadLengthPrefixedReader(width int, context string) (*Reader, error) {
	var body cryptobyte.String
	offset := r.Offset()
	var ok bool
	switch width {
	case 1:
		ok = r.s.ReadUint8LengthPrefixed(&body)
	case 2:
		ok = r.s.ReadUint16LengthPrefixed(&body)
	case 3:
		ok = r.s.ReadUint24LengthPrefixed(&body)
	default:
		panic(fmt.Sprintf("cttypes: unsupported length prefix width %d", width))
	}
	if !ok {
		return nil, r.truncated(context, offset)
	}
	return &Reader{s: body, end: offset + width + len(body)}, nil
}

// ReadRest consumes and returns all remaining bytes.
func (r *Reader) ReadRest() []byte {
	v := []byte(r.s)
	r.s = r.s[len(r.s):]
	return v
}

// ExpectExhausted returns *TrailingDataError if any bytes remain after context.
func (r *Reader) ExpectExhausted(context string) error {
	if !r.s.Empty() {
		return &TrailingDataError{Context: context, Offset: r.Offset(), Length: len(r.s)}
	}
	return nil
}
