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
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"software.sslmate.com/src/ctentries/merkletree"
)

// RawLogEntry is one element of the "entries" array returned by get-entries.
type RawLogEntry struct {
	LeafInput string `json:"leaf_input"`
	ExtraData string `json:"extra_data"`
}

type GetEntriesResponse struct {
	Entries []RawLogEntry `json:"entries"`
}

type ParsedLogEntry struct {
	Leaf     MerkleTreeLeaf
	Entry    ChainEntry
	LeafHash merkletree.Hash
}

func (raw *RawLogEntry) Parse() (*ParsedLogEntry, error) {
	parsed := new(ParsedLogEntry)
	if err := parsed.parse(raw); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (parsed *ParsedLogEntry) parse(raw *RawLogEntry) error {
	leafInput, err := decodeField("leaf_input", raw.LeafInput)
	if err != nil {
		return err
	}
	extraData, err := decodeOptionalField("extra_data", raw.ExtraData)
	if err != nil {
		return err
	}
	leaf, err := ParseLeafInput(leafInput)
	if err != nil {
		return err
	}
	// Only entries of an unknown type may have empty extra_data.
	if len(extraData) == 0 && leaf.TimestampedEntry.EntryType.IsKnown() {
		return &EncodingError{Field: "extra_data", Err: ErrMissingField}
	}
	entry, err := ParseExtraData(leaf, extraData)
	if err != nil {
		return err
	}
	parsed.Leaf = *leaf
	parsed.Entry = entry
	parsed.LeafHash = merkletree.HashLeaf(leafInput)
	return nil
}

// RawLogEntry re-encodes the entry in get-entries form.
func (parsed *ParsedLogEntry) RawLogEntry() (*RawLogEntry, error) {
	leafInput, err := parsed.Leaf.Bytes()
	if err != nil {
		return nil, err
	}
	extraData, err := MarshalExtraData(parsed.Entry)
	if err != nil {
		return nil, err
	}
	return &RawLogEntry{
		LeafInput: encodeField(leafInput),
		ExtraData: encodeField(extraData),
	}, nil
}

// ParseEntries decodes every entry, preserving order.  If any entry fails,
// no entries are returned and the error is a *BatchDecodeError for the
// failing entry with the lowest index.  If workers > 1, up to that many
// entries are decoded concurrently.
func ParseEntries(entries []RawLogEntry, workers int) ([]ParsedLogEntry, error) {
	parsed := make([]ParsedLogEntry, len(entries))

	if workers <= 1 {
		for i := range entries {
			if err := parsed[i].parse(&entries[i]); err != nil {
				return nil, &BatchDecodeError{Index: i, Err: err}
			}
		}
		return parsed, nil
	}

	errs := make([]error, len(entries))
	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(entries)))

	var group errgroup.Group
	group.SetLimit(workers)
	for i := range entries {
		if int64(i) > firstFailure.Load() {
			break
		}
		group.Go(func() error {
			if err := parsed[i].parse(&entries[i]); err != nil {
				errs[i] = err
				for {
					current := firstFailure.Load()
					if int64(i) >= current || firstFailure.CompareAndSwap(current, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	group.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &BatchDecodeError{Index: i, Err: err}
		}
	}
	return parsed, nil
}

func (response *GetEntriesResponse) ParsedEntries(workers int) ([]ParsedLogEntry, error) {
	return ParseEntries(response.Entries, workers)
}
