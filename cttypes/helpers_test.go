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
	"testing"

	"golang.org/x/crypto/cryptobyte"
)

const testTimestamp = 1719511711300

func marshal(t *testing.T, v cryptobyte.MarshalingValue) []byte {
	t.Helper()
	var builder cryptobyte.Builder
	builder.AddValue(v)
	b, err := builder.Bytes()
	if err != nil {
		t.Fatalf("error marshaling %T: %s", v, err)
	}
	return b
}

func certLeafBytes(t *testing.T, cert []byte) []byte {
	t.Helper()
	return marshal(t, MerkleTreeLeafForCert(testTimestamp, []byte{0xe0, 0x01}, cert))
}

func precertLeafBytes(t *testing.T, tbs []byte) []byte {
	t.Helper()
	precert := PreCert{TBSCertificate: tbs}
	for i := range precert.IssuerKeyHash {
		precert.IssuerKeyHash[i] = byte(i)
	}
	return marshal(t, MerkleTreeLeafForPrecert(testTimestamp, nil, precert))
}

// unknownLeafBytes builds a leaf with the given entry_type followed by body.
func unknownLeafBytes(entryType uint16, body []byte) []byte {
	var builder cryptobyte.Builder
	builder.AddUint8(uint8(V1))
	builder.AddUint8(uint8(TimestampedEntryType))
	builder.AddUint64(testTimestamp)
	builder.AddUint16(entryType)
	builder.AddBytes(body)
	return builder.BytesOrPanic()
}

func chainBytes(t *testing.T, certs ...[]byte) []byte {
	t.Helper()
	chain := ASN1CertChain{}
	for _, cert := range certs {
		chain = append(chain, cert)
	}
	return marshal(t, chain)
}

func b64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
