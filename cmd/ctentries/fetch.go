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
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"software.sslmate.com/src/ctentries/ctclient"
	"software.sslmate.com/src/ctentries/cttypes"
)

type batch struct {
	begin, end uint64 // [begin, end)
	rawEntries []cttypes.RawLogEntry
	entries    []cttypes.ParsedLogEntry
	err        error
	ready      chan struct{}
}

func makeBatches(begin, end, batchSize uint64) []*batch {
	var batches []*batch
	for begin < end {
		batchEnd := begin + min(batchSize, end-begin)
		batches = append(batches, &batch{begin: begin, end: batchEnd, ready: make(chan struct{})})
		begin = batchEnd
	}
	return batches
}

func (b *batch) download(ctx context.Context, client ctclient.Log, decodeWorkers int) {
	defer close(b.ready)
	b.rawEntries, b.err = ctclient.GetRawEntriesFull(ctx, client, b.begin, b.end)
	if b.err != nil {
		return
	}
	b.entries, b.err = cttypes.ParseEntries(b.rawEntries, decodeWorkers)
}

// fetchRange downloads [begin, end) using up to config.ParallelFetch concurrent
// requests and calls process for each batch in index order.  Batches after the
// first failed one are not started, so the error process sees first is always
// the one for the lowest failing index.
func fetchRange(ctx context.Context, config *Config, client ctclient.Log, begin, end uint64, process func(*batch) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := makeBatches(begin, end, config.BatchSize)
	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(batches)))

	go func() {
		var group errgroup.Group
		group.SetLimit(max(config.ParallelFetch, 1))
		for i, b := range batches {
			if int64(i) > firstFailure.Load() {
				close(b.ready)
				continue
			}
			group.Go(func() error {
				b.download(ctx, client, config.DecodeWorkers)
				if b.err != nil {
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
	}()

	for _, b := range batches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.ready:
		}
		if err := process(b); err != nil {
			return err
		}
		if b.err != nil {
			return b.err
		}
	}
	return nil
}
