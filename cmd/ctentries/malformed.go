// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"software.sslmate.com/src/ctentries/cttypes"
)

type malformedLogEntry struct {
	Source string // log URL or input filename
	Index  uint64
	Entry  *cttypes.RawLogEntry
	Error  error
}

// newMalformedLogEntry returns nil unless err identifies a single entry of rawEntries.
func newMalformedLogEntry(source string, begin uint64, rawEntries []cttypes.RawLogEntry, err error) *malformedLogEntry {
	var batchErr *cttypes.BatchDecodeError
	if !errors.As(err, &batchErr) || batchErr.Index < 0 || batchErr.Index >= len(rawEntries) {
		return nil
	}
	return &malformedLogEntry{
		Source: source,
		Index:  begin + uint64(batchErr.Index),
		Entry:  &rawEntries[batchErr.Index],
		Error:  batchErr.Err,
	}
}

func (malformed *malformedLogEntry) reason() string {
	var (
		encodingErr  *cttypes.EncodingError
		versionErr   *cttypes.UnsupportedVersionError
		leafTypeErr  *cttypes.UnsupportedLeafTypeError
		truncatedErr *cttypes.TruncatedInputError
		trailingErr  *cttypes.TrailingDataError
	)
	switch {
	case errors.As(malformed.Error, &encodingErr):
		return "bad " + encodingErr.Field + " encoding"
	case errors.As(malformed.Error, &versionErr):
		return "unsupported version"
	case errors.As(malformed.Error, &leafTypeErr):
		return "unsupported leaf type"
	case errors.As(malformed.Error, &truncatedErr):
		return "truncated " + truncatedErr.Context
	case errors.As(malformed.Error, &trailingErr):
		return "trailing data after " + trailingErr.Context
	default:
		return "malformed"
	}
}

func (malformed *malformedLogEntry) Text() string {
	text := new(strings.Builder)
	writeField := func(name string, value any) { fmt.Fprintf(text, "\t%9s = %s\n", name, value) }

	fmt.Fprintf(text, "Unable to decode log entry:\n")
	writeField("Log Entry", fmt.Sprintf("%d @ %s", malformed.Index, malformed.Source))
	writeField("Reason", malformed.reason())
	writeField("Error", malformed.Error)

	return text.String()
}

// save writes the raw entry as JSON and a description as text to dir.
func (malformed *malformedLogEntry) save(dir string) error {
	basename := filepath.Join(dir, fmt.Sprintf("%d", malformed.Index))
	if err := writeJSONFile(basename+".json", malformed.Entry, 0666); err != nil {
		return err
	}
	if err := writeFile(basename+".txt", []byte(malformed.Text()), 0666); err != nil {
		return err
	}
	return nil
}
