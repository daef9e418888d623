// Copyright (C) 2025 Opsmate, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla
// Public License, v. 2.0. If a copy of the MPL was not distributed
// with this file, You can obtain one at http://mozilla.org/MPL/2.0/.
//
// This software is distributed WITHOUT A WARRANTY OF ANY KIND.
// See the Mozilla Public License for details.

// Command ctentries downloads a range of entries from an RFC 6962 log (or
// reads a saved get-entries response) and prints one line per decoded entry.
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"software.sslmate.com/src/ctentries/ctclient"
	"software.sslmate.com/src/ctentries/cttypes"
)

func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

func fingerprint(entry cttypes.ChainEntry) string {
	switch e := entry.(type) {
	case *cttypes.X509ChainEntry:
		return fmt.Sprintf("%x", sha256.Sum256(e.LeafCertificate))
	case *cttypes.PrecertChainEntry:
		return fmt.Sprintf("%x", sha256.Sum256(e.PreCertificate))
	default:
		return "-"
	}
}

func chainLength(entry cttypes.ChainEntry) string {
	switch e := entry.(type) {
	case *cttypes.X509ChainEntry:
		return fmt.Sprint(len(e.CertificateChain))
	case *cttypes.PrecertChainEntry:
		return fmt.Sprint(len(e.PrecertificateChain))
	default:
		return "-"
	}
}

// Latest time RFC 3339 can represent: 9999-12-31T23:59:59.999Z
const maxRFC3339Millis = 253402300799999

// formatTimestamp falls back to the raw millisecond count for timestamps
// that RFC 3339 cannot represent.
func formatTimestamp(entry *cttypes.TimestampedEntry) string {
	if entry.Timestamp > maxRFC3339Millis {
		return fmt.Sprint(entry.Timestamp)
	}
	return entry.Time().UTC().Format(time.RFC3339)
}

func formatEntry(index uint64, entry *cttypes.ParsedLogEntry) string {
	timestampedEntry := entry.Leaf.TimestampedEntry
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s",
		index,
		timestampedEntry.EntryType,
		formatTimestamp(timestampedEntry),
		entry.LeafHash.Base64String(),
		fingerprint(entry.Entry),
		chainLength(entry.Entry),
	)
}

func writeEntries(out io.Writer, begin uint64, entries []cttypes.ParsedLogEntry) error {
	for i := range entries {
		if _, err := fmt.Fprintln(out, formatEntry(begin+uint64(i), &entries[i])); err != nil {
			return err
		}
	}
	return nil
}

func reportMalformed(config *Config, source string, b *batch) {
	malformed := newMalformedLogEntry(source, b.begin, b.rawEntries, b.err)
	if malformed == nil {
		return
	}
	logger := log.WithFields(log.Fields{
		"source": source,
		"index":  malformed.Index,
		"reason": malformed.reason(),
	})
	logger.Error("unable to decode log entry")
	if config.MalformedDir != "" {
		if err := malformed.save(config.MalformedDir); err != nil {
			logger.WithError(err).Warn("unable to save malformed entry")
		}
	}
}

func decodeFile(config *Config, out io.Writer) error {
	var response cttypes.GetEntriesResponse
	if err := readJSONFile(config.InputFile, &response); err != nil {
		return err
	}
	b := &batch{
		begin:      config.Start,
		end:        config.Start + uint64(len(response.Entries)),
		rawEntries: response.Entries,
	}
	b.entries, b.err = cttypes.ParseEntries(response.Entries, config.DecodeWorkers)
	if b.err != nil {
		reportMalformed(config, config.InputFile, b)
		return fmt.Errorf("%s: %w", config.InputFile, b.err)
	}
	log.Debugf("%s: decoded %d entries", config.InputFile, len(b.entries))
	return writeEntries(out, b.begin, b.entries)
}

func downloadLog(ctx context.Context, config *Config, out io.Writer) error {
	logURL, err := url.Parse(config.LogURL)
	if err != nil {
		return fmt.Errorf("log has invalid URL: %w", err)
	}
	client := &ctclient.RFC6962Log{
		URL:     logURL,
		Limiter: newLimiter(config.RequestRate),
	}
	return fetchRange(ctx, config, client, config.Start, config.End+1, func(b *batch) error {
		if b.err != nil {
			reportMalformed(config, config.LogURL, b)
			return fmt.Errorf("error downloading entries %d-%d: %w", b.begin, b.end-1, b.err)
		}
		log.Debugf("%s: downloaded entries %d-%d", config.LogURL, b.begin, b.end-1)
		return writeEntries(out, b.begin, b.entries)
	})
}

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	config, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Error(err)
		os.Exit(2)
	}
	if config.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := bufio.NewWriter(os.Stdout)
	if config.InputFile != "" {
		err = decodeFile(config, out)
	} else {
		err = downloadLog(ctx, config, out)
	}
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
