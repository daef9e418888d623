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
	"fmt"

	"software.sslmate.com/src/ctentries/cttypes"
)

// GetRawEntriesFull returns every raw entry in [startInclusive, endExclusive),
// issuing as many requests as the log's page size requires.
func GetRawEntriesFull(ctx context.Context, client Log, startInclusive, endExclusive uint64) ([]cttypes.RawLogEntry, error) {
	if startInclusive > endExclusive {
		return nil, fmt.Errorf("invalid range [%d, %d)", startInclusive, endExclusive)
	}
	var allEntries []cttypes.RawLogEntry
	for startInclusive < endExclusive {
		entries, err := client.GetRawEntries(ctx, startInclusive, endExclusive-1)
		if err != nil {
			return nil, err
		}
		allEntries = append(allEntries, entries...)
		startInclusive += uint64(len(entries))
	}
	return allEntries, nil
}
