/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ntpscan/ntpfp/nettransport"
	"github.com/ntpscan/ntpfp/scanengine"
)

// runWorkers partitions targets across opts.threads worker shards by
// ceil(N/T) chunking and runs each shard in its own goroutine over its
// own socket pair. Each worker's channel is buffered to its full shard
// size, so no worker ever blocks on a send waiting for the aggregator;
// that lets a single goroutine read the channels round-robin, fully
// draining each one until it closes, with no locking required (spec.md
// §5: "No locking required inside a worker. The aggregator reads all
// worker channels in a round-robin, draining each until closed.").
func runWorkers(targets []scanengine.Target, metrics *scanengine.Metrics) []scanengine.ScanResult {
	threads := opts.threads
	if threads <= 0 {
		threads = 1
	}
	chunks := partition(targets, threads)

	cfg := scanengine.Config{
		PollTimeoutMs:   opts.pollMs,
		MaxRetries:      uint32(opts.retries),
		IdentifyEnabled: opts.identify,
		Spread:          time.Duration(opts.spreadSeconds) * time.Second,
		Concurrency:     opts.targetsPerThread,
		Metrics:         metrics,
	}

	channels := make([]chan scanengine.ScanResult, 0, len(chunks))
	for i, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		resultCh := make(chan scanengine.ScanResult, len(chunk))
		channels = append(channels, resultCh)

		sock, err := nettransport.New()
		if err != nil {
			log.WithError(err).WithField("worker", i).Fatal("failed to open worker socket pair")
		}

		go func(idx int, targets []scanengine.Target, conn *nettransport.Socket, results chan scanengine.ScanResult) {
			defer close(results)
			defer conn.Close()

			logger := log.WithField("worker", idx)
			w := scanengine.NewWorker(conn, cfg, results, logger)
			w.Run(targets)
		}(i, chunk, sock, resultCh)
	}

	var results []scanengine.ScanResult
	for _, ch := range channels {
		for r := range ch {
			results = append(results, r)
		}
	}
	return results
}

// partition splits targets into at most n roughly equal chunks, ceil(N/n)
// targets each, matching the worker-shard partitioning rule.
func partition(targets []scanengine.Target, n int) [][]scanengine.Target {
	if n <= 0 {
		n = 1
	}
	size := (len(targets) + n - 1) / n
	if size == 0 {
		return nil
	}
	chunks := make([][]scanengine.Target, 0, n)
	for start := 0; start < len(targets); start += size {
		end := start + size
		if end > len(targets) {
			end = len(targets)
		}
		chunks = append(chunks, targets[start:end])
	}
	return chunks
}
