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
	"golang.org/x/crypto/cryptobyte"
)

type TBSCertificate []byte

type ASN1Cert []byte

type ASN1CertChain []ASN1Cert

// Corresponds to the PreCert structure in RFC 6962.  PreCert is a misnomer because this is really a TBSCertificate, not a precertificate.
type PreCert struct {
	IssuerKeyHash  [32]byte
	TBSCertificate TBSCertificate
}

// ChainEntry is the decoded extra_data of a log entry: one of
// *X509ChainEntry, *PrecertChainEntry, or *UnknownEntry.
type ChainEntry interface {
	EntryType() LogEntryType
	isChainEntry()
}

type X509ChainEntry struct {
	LeafCertificate  ASN1Cert // from the leaf's signed_entry, not extra_data
	CertificateChain ASN1CertChain
}

type PrecertChainEntry struct {
	PreCertificate      ASN1Cert
	PrecertificateChain ASN1CertChain
}

// UnknownEntry carries the extra_data of an entry whose type this package
// does not recognize.
type UnknownEntry struct {
	Type      LogEntryType
	ExtraData []byte
}

func (*X509ChainEntry) EntryType() LogEntryType    { return X509EntryType }
func (*PrecertChainEntry) EntryType() LogEntryType { return PrecertEntryType }
func (e *UnknownEntry) EntryType() LogEntryType    { return e.Type }

func (*X509ChainEntry) isChainEntry()    {}
func (*PrecertChainEntry) isChainEntry() {}
func (*UnknownEntry) isChainEntry()      {}

func (v *TBSCertificate) Unmarshal(r *Reader) error {
	tbs, err := r.ReadLengthPrefixed(3, "PreCert tbs_certificate")
	*v = tbs
	return err
}
func (v TBSCertificate) Marshal(b *cryptobyte.Builder) error {
	b.AddUint24LengthPrefixed(addBytesFunc(v))
	return nil
}

func (v *ASN1Cert) Unmarshal(r *Reader, context string) error {
	cert, err := r.ReadLengthPrefixed(3, context)
	*v = cert
	return err
}
func (v ASN1Cert) Marshal(b *cryptobyte.Builder) error {
	b.AddUint24LengthPrefixed(addBytesFunc(v))
	return nil
}

// Unmarshal reads a certificate_chain<0..2^24-1>.  Leftover bytes inside the
// vector that are too short to hold another length header are trailing data;
// a header whose body overruns the vector is truncation.
func (v *ASN1CertChain) Unmarshal(r *Reader, context string) error {
	chain, err := r.ReadLengthPrefixedReader(3, context)
	if err != nil {
		return err
	}
	*v = []ASN1Cert{}
	for !chain.Empty() {
		if chain.Remaining() < 3 {
			return chain.ExpectExhausted(context)
		}
		var cert ASN1Cert
		if err := cert.Unmarshal(chain, context+" ASN.1Cert"); err != nil {
			return err
		}
		*v = append(*v, cert)
	}
	return nil
}
func (v ASN1CertChain) Marshal(b *cryptobyte.Builder) error {
	b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) {
		for _, cert := range v {
			b.AddValue(cert)
		}
	})
	return nil
}

func (precert *PreCert) Unmarshal(r *Reader) error {
	issuerKeyHash, err := r.ReadFixed(len(precert.IssuerKeyHash), "PreCert issuer_key_hash")
	if err != nil {
		return err
	}
	copy(precert.IssuerKeyHash[:], issuerKeyHash)
	return precert.TBSCertificate.Unmarshal(r)
}
func (v *PreCert) Marshal(b *cryptobyte.Builder) error {
	b.AddBytes(v.IssuerKeyHash[:])
	b.AddValue(v.TBSCertificate)
	return nil
}

func (entry *PrecertChainEntry) Unmarshal(r *Reader) error {
	if err := entry.PreCertificate.Unmarshal(r, "PrecertChainEntry pre_certificate"); err != nil {
		return err
	}
	return entry.PrecertificateChain.Unmarshal(r, "PrecertChainEntry precertificate_chain")
}
func (v *PrecertChainEntry) Marshal(b *cryptobyte.Builder) error {
	b.AddValue(v.PreCertificate)
	b.AddValue(v.PrecertificateChain)
	return nil
}

func ParseExtraDataForX509Entry(extraData []byte) (ASN1CertChain, error) {
	r := NewReader(extraData)
	var chain ASN1CertChain
	if err := chain.Unmarshal(r, "certificate_chain"); err != nil {
		return nil, err
	}
	if err := r.ExpectExhausted("certificate_chain"); err != nil {
		return nil, err
	}
	return chain, nil
}

func ParseExtraDataForPrecertEntry(extraData []byte) (*PrecertChainEntry, error) {
	r := NewReader(extraData)
	entry := new(PrecertChainEntry)
	if err := entry.Unmarshal(r); err != nil {
		return nil, err
	}
	if err := r.ExpectExhausted("PrecertChainEntry"); err != nil {
		return nil, err
	}
	return entry, nil
}

// ParseExtraData decodes extraData according to the leaf it accompanies.
// Entries of an unknown type are returned as *UnknownEntry without error.
func ParseExtraData(leaf *MerkleTreeLeaf, extraData []byte) (ChainEntry, error) {
	entry := leaf.TimestampedEntry
	switch entry.EntryType {
	case X509EntryType:
		chain, err := ParseExtraDataForX509Entry(extraData)
		if err != nil {
			return nil, err
		}
		return &X509ChainEntry{
			LeafCertificate:  *entry.SignedEntryASN1Cert,
			CertificateChain: chain,
		}, nil
	case PrecertEntryType:
		precertEntry, err := ParseExtraDataForPrecertEntry(extraData)
		if err != nil {
			return nil, err
		}
		return precertEntry, nil
	default:
		return &UnknownEntry{Type: entry.EntryType, ExtraData: extraData}, nil
	}
}

// MarshalExtraData is the inverse of ParseExtraData.
func MarshalExtraData(entry ChainEntry) ([]byte, error) {
	var builder cryptobyte.Builder
	switch e := entry.(type) {
	case *X509ChainEntry:
		builder.AddValue(e.CertificateChain)
	case *PrecertChainEntry:
		builder.AddValue(e)
	case *UnknownEntry:
		builder.AddBytes(e.ExtraData)
	}
	return builder.Bytes()
}
