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
	"math"
	"time"

	"golang.org/x/crypto/cryptobyte"
	"software.sslmate.com/src/ctentries/merkletree"
)

type MerkleLeafType uint8

const (
	TimestampedEntryType MerkleLeafType = 0
)

// LogEntryType is the entry_type of a TimestampedEntry.  Values other than
// X509EntryType and PrecertEntryType are legal and must not be treated as
// errors (RFC 6962 section 4.6); see IsKnown.
type LogEntryType uint16

const (
	X509EntryType    LogEntryType = 0
	PrecertEntryType LogEntryType = 1
)

func (v LogEntryType) IsKnown() bool {
	return v == X509EntryType || v == PrecertEntryType
}

func (v LogEntryType) String() string {
	switch v {
	case X509EntryType:
		return "X509"
	case PrecertEntryType:
		return "PreCertificate"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(v))
	}
}

type CTExtensions []byte

type MerkleTreeLeaf struct {
	Version          Version
	LeafType         MerkleLeafType
	TimestampedEntry *TimestampedEntry
}

type TimestampedEntry struct {
	Timestamp           uint64 // milliseconds since the Unix epoch
	EntryType           LogEntryType
	SignedEntryASN1Cert *ASN1Cert
	SignedEntryPreCert  *PreCert
	Extensions          CTExtensions

	// Holds everything after entry_type (signed entry and extensions) when
	// EntryType is unknown, since its layout cannot be determined.
	UnparsedSignedEntry []byte
}

func (v *MerkleLeafType) Unmarshal(r *Reader) error {
	u, err := r.ReadUint8("MerkleTreeLeaf leaf_type")
	*v = MerkleLeafType(u)
	return err
}
func (v MerkleLeafType) Marshal(b *cryptobyte.Builder) error {
	b.AddUint8(uint8(v))
	return nil
}

func (v *LogEntryType) Unmarshal(r *Reader) error {
	u, err := r.ReadUint16("TimestampedEntry entry_type")
	*v = LogEntryType(u)
	return err
}
func (v LogEntryType) Marshal(b *cryptobyte.Builder) error {
	b.AddUint16(uint16(v))
	return nil
}

func (v *CTExtensions) Unmarshal(r *Reader) error {
	ext, err := r.ReadLengthPrefixed(2, "TimestampedEntry extensions")
	*v = ext
	return err
}
func (v CTExtensions) Marshal(b *cryptobyte.Builder) error {
	b.AddUint16LengthPrefixed(addBytesFunc(v))
	return nil
}

func (leaf *MerkleTreeLeaf) Unmarshal(r *Reader) error {
	if err := leaf.Version.Unmarshal(r); err != nil {
		return err
	}
	if leaf.Version != V1 {
		return &UnsupportedVersionError{Version: leaf.Version}
	}
	if err := leaf.LeafType.Unmarshal(r); err != nil {
		return err
	}
	switch leaf.LeafType {
	case TimestampedEntryType:
		leaf.TimestampedEntry = new(TimestampedEntry)
		if err := leaf.TimestampedEntry.Unmarshal(r); err != nil {
			return err
		}
	default:
		return &UnsupportedLeafTypeError{LeafType: leaf.LeafType}
	}
	return nil
}
func (v *MerkleTreeLeaf) Marshal(b *cryptobyte.Builder) error {
	b.AddValue(v.Version)
	b.AddValue(v.LeafType)
	switch v.LeafType {
	case TimestampedEntryType:
		b.AddValue(v.TimestampedEntry)
	}
	return nil
}
func (v *MerkleTreeLeaf) Bytes() ([]byte, error) {
	var builder cryptobyte.Builder
	builder.AddValue(v)
	return builder.Bytes()
}
func (v *MerkleTreeLeaf) Hash() merkletree.Hash {
	var builder cryptobyte.Builder
	builder.AddValue(v)
	return merkletree.HashLeaf(builder.BytesOrPanic())
}

func (entry *TimestampedEntry) Unmarshal(r *Reader) error {
	var err error
	if entry.Timestamp, err = r.ReadUint64("TimestampedEntry timestamp"); err != nil {
		return err
	}
	if err := entry.EntryType.Unmarshal(r); err != nil {
		return err
	}
	switch entry.EntryType {
	case X509EntryType:
		entry.SignedEntryASN1Cert = new(ASN1Cert)
		if err := entry.SignedEntryASN1Cert.Unmarshal(r, "TimestampedEntry signed_entry ASN.1Cert"); err != nil {
			return err
		}
	case PrecertEntryType:
		entry.SignedEntryPreCert = new(PreCert)
		if err := entry.SignedEntryPreCert.Unmarshal(r); err != nil {
			return err
		}
	default:
		entry.UnparsedSignedEntry = r.ReadRest()
		return nil
	}
	if err := entry.Extensions.Unmarshal(r); err != nil {
		return err
	}
	return nil
}
func (v *TimestampedEntry) Marshal(b *cryptobyte.Builder) error {
	b.AddUint64(v.Timestamp)
	b.AddValue(v.EntryType)
	switch v.EntryType {
	case X509EntryType:
		b.AddValue(v.SignedEntryASN1Cert)
	case PrecertEntryType:
		b.AddValue(v.SignedEntryPreCert)
	default:
		b.AddBytes(v.UnparsedSignedEntry)
		return nil
	}
	b.AddValue(v.Extensions)
	return nil
}

// Recognized reports whether the signed entry could be decoded.
func (v *TimestampedEntry) Recognized() bool {
	return v.EntryType.IsKnown()
}

// Time converts Timestamp, clamping values beyond the range of int64.
func (v *TimestampedEntry) Time() time.Time {
	if v.Timestamp > math.MaxInt64 {
		return time.UnixMilli(math.MaxInt64)
	}
	return time.UnixMilli(int64(v.Timestamp))
}

func ParseLeafInput(leafInput []byte) (*MerkleTreeLeaf, error) {
	r := NewReader(leafInput)
	leaf := new(MerkleTreeLeaf)
	if err := leaf.Unmarshal(r); err != nil {
		return nil, err
	}
	if err := r.ExpectExhausted("MerkleTreeLeaf"); err != nil {
		return nil, err
	}
	return leaf, nil
}

func MerkleTreeLeafForCert(timestamp uint64, extensions []byte, cert ASN1Cert) *MerkleTreeLeaf {
	return &MerkleTreeLeaf{
		Version:  V1,
		LeafType: TimestampedEntryType,
		TimestampedEntry: &TimestampedEntry{
			Timestamp:           timestamp,
			EntryType:           X509EntryType,
			SignedEntryASN1Cert: &cert,
			Extensions:          extensions,
		},
	}
}

func MerkleTreeLeafForPrecert(timestamp uint64, extensions []byte, precert PreCert) *MerkleTreeLeaf {
	return &MerkleTreeLeaf{
		Version:  V1,
		LeafType: TimestampedEntryType,
		TimestampedEntry: &TimestampedEntry{
			Timestamp:          timestamp,
			EntryType:          PrecertEntryType,
			SignedEntryPreCert: &precert,
			Extensions:         extensions,
		},
	}
}
