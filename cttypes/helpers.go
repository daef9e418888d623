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
	"encoding/base64"

	"golang.org/x/crypto/cryptobyte"
)

func addBytesFunc(v []byte) cryptobyte.BuilderContinuation {
	return func(b *cryptobyte.Builder) {
		b.AddBytes(v)
	}
}

func decodeField(field string, text string) ([]byte, error) {
	if text == "" {
		return nil, &EncodingError{Field: field, Err: ErrMissingField}
	}
	return decodeOptionalField(field, text)
}

// decodeOptionalField is like decodeField but decodes "" to an empty slice.
func decodeOptionalField(field string, text string) ([]byte, error) {
	data, err := base64.StdEncoding.Strict().DecodeString(text)
	if err != nil {
		return nil, &EncodingError{Field: field, Err: err}
	}
	return data, nil
}

func encodeField(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
