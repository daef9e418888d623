// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

package ctclient

import (
	"context"

	"software.sslmate.com/src/ctentries/cttypes"
)

type Log interface {
	// Returns the raw entries in [startInclusive, endInclusive].  The log may
	// return fewer entries than requested, but always at least one.
	GetRawEntries(ctx context.Context, startInclusive, endInclusive uint64) ([]cttypes.RawLogEntry, error)

	// Like GetRawEntries, but decodes the entries.  Fails if any entry is malformed.
	GetEntries(ctx context.Context, startInclusive, endInclusive uint64) ([]cttypes.ParsedLogEntry, error)
}
