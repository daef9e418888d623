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
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("field is missing or empty")

// EncodingError is returned when a get-entries field is not valid base64.
type EncodingError struct {
	Field string // "leaf_input" or "extra_data"
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s is not valid base64: %s", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

type UnsupportedVersionError struct {
	Version Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported Version 0x%02x", uint8(e.Version))
}

type UnsupportedLeafTypeError struct {
	LeafType MerkleLeafType
}

func (e *UnsupportedLeafTypeError) Error() string {
	return fmt.Sprintf("unrecognized MerkleLeafType 0x%02x", uint8(e.LeafType))
}

// TruncatedInputError is returned when a field needs more bytes than remain.
// Offset is the position of the field within the decoded input.
type TruncatedInputError struct {
	Context string
	Offset  int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input reading %s at offset %d", e.Context, e.Offset)
}

// TrailingDataError is returned when Length bytes remain at Offset after
// a structure has been fully decoded.
type TrailingDataError struct {
	Context string
	Offset  int
	Length  int
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("%d bytes of trailing garbage after %s at offset %d", e.Length, e.Context, e.Offset)
}

// BatchDecodeError identifies the first entry of a get-entries response
// that could not be decoded.  Index is relative to the start of the response.
type BatchDecodeError struct {
	Index int
	Err   error
}

func (e *BatchDecodeError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Index, e.Err)
}

func (e *BatchDecodeError) Unwrap() error {
	return e.Err
}
