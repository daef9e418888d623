// Copyright (C) 2022 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

// Package merkletree computes RFC 6962 Merkle Tree leaf hashes.
package merkletree

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const HashLen = 32

type Hash [HashLen]byte

func (h Hash) Base64String() string {
	return base64.StdEncoding.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Base64String()
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Base64String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	hashBytes, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("Merkle Tree hash is not valid base64: %w", err)
	}
	if len(hashBytes) != HashLen {
		return fmt.Errorf("Merkle Tree hash has wrong length (should be %d bytes long, not %d)", HashLen, len(hashBytes))
	}
	copy(h[:], hashBytes)
	return nil
}

// HashLeaf returns SHA-256(0x00 || leafInput), the hash of a MerkleTreeLeaf
// as it appears in the tree.
func HashLeaf(leafInput []byte) Hash {
	var hash Hash
	hasher := sha256.New()
	hasher.Write([]byte{0x00})
	hasher.Write(leafInput)
	hasher.Sum(hash[:0])
	return hash
}
