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
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
	"software.sslmate.com/src/ctentries/cttypes"
)

type RFC6962Log struct {
	URL        *url.URL
	HTTPClient *http.Client  // nil to use default client
	Limiter    *rate.Limiter // nil to send requests without pacing

	// Number of goroutines used to decode each response; 0 or 1 decodes sequentially
	DecodeWorkers int
}

func (ctlog *RFC6962Log) GetRawEntries(ctx context.Context, startInclusive uint64, endInclusive uint64) ([]cttypes.RawLogEntry, error) {
	if startInclusive > endInclusive {
		return nil, fmt.Errorf("invalid range [%d, %d]", startInclusive, endInclusive)
	}
	fullURL := ctlog.URL.JoinPath("/ct/v1/get-entries").String()
	fullURL += fmt.Sprintf("?start=%d&end=%d", startInclusive, endInclusive)

	var parsedResponse cttypes.GetEntriesResponse
	if err := getJSON(ctx, ctlog.HTTPClient, ctlog.Limiter, fullURL, &parsedResponse); err != nil {
		return nil, err
	}
	if len(parsedResponse.Entries) == 0 {
		return nil, fmt.Errorf("Get %q: zero entries returned", fullURL)
	}
	if uint64(len(parsedResponse.Entries)) > endInclusive-startInclusive+1 {
		return nil, fmt.Errorf("Get %q: extraneous entries returned", fullURL)
	}
	return parsedResponse.Entries, nil
}

// GetEntries returns the decoded entries in [startInclusive, endInclusive].
// If an entry is malformed, the returned error wraps a *cttypes.BatchDecodeError
// whose Index is relative to startInclusive.
func (ctlog *RFC6962Log) GetEntries(ctx context.Context, startInclusive uint64, endInclusive uint64) ([]cttypes.ParsedLogEntry, error) {
	rawEntries, err := ctlog.GetRawEntries(ctx, startInclusive, endInclusive)
	if err != nil {
		return nil, err
	}
	entries, err := cttypes.ParseEntries(rawEntries, ctlog.DecodeWorkers)
	if err != nil {
		return nil, fmt.Errorf("%s: error decoding entries starting at %d: %w", ctlog.URL, startInclusive, err)
	}
	return entries, nil
}
