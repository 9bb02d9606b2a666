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

package scanengine

import (
	"errors"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/ntpscan/ntpfp/nettransport"
	"github.com/ntpscan/ntpfp/ntpwire"
)

// Target is one host to scan: its resolved address and the original
// string the user typed (for result reporting).
type Target struct {
	Addr netip.AddrPort
	Host string
}

// Config bundles the CLI-derived knobs a worker runs with.
type Config struct {
	PollTimeoutMs   int
	MaxRetries      uint32
	IdentifyEnabled bool
	Spread          time.Duration
	Concurrency     int
	Metrics         *Metrics
}

// Worker owns one dual-stack socket pair and drives up to
// Config.Concurrency targets concurrently via cooperative multiplexing.
type Worker struct {
	conn    nettransport.Conn
	cfg     Config
	results chan<- ScanResult
	log     *log.Entry

	active  map[netip.AddrPort]*ScanState
	pending []Target
}

// NewWorker builds a worker around an already-open transport. Workers
// never share a Conn; each owns its own socket pair.
func NewWorker(conn nettransport.Conn, cfg Config, results chan<- ScanResult, logger *log.Entry) *Worker {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Worker{conn: conn, cfg: cfg, results: results, log: logger}
}

// Run scans targets to completion, publishing a ScanResult per target
// on w.results as each one reaches Done. It returns once every target
// has been consumed and every active state finished.
func (w *Worker) Run(targets []Target) {
	w.pending = targets
	w.active = make(map[netip.AddrPort]*ScanState)

	k := w.cfg.Concurrency
	if k <= 0 {
		k = 1
	}
	for i := 0; i < k && len(w.pending) > 0; i++ {
		w.seed()
	}

	for len(w.active) > 0 {
		pr, err := w.conn.Poll(w.cfg.PollTimeoutMs)
		if err != nil {
			w.log.WithError(err).Error("poll failed")
			continue
		}
		if pr.Readable4 || pr.Readable6 {
			w.handleReadable(pr)
		} else {
			w.handleTimeouts()
		}
	}
}

// seed pulls the next non-duplicate target off the pending queue,
// starts its first phase, and flushes its initial probes. A target whose
// address is currently active in this worker is logged and skipped, so
// the first occurrence wins; an address that repeats after its earlier
// occurrence has finished, or that sits in another worker's shard, is
// scanned again.
func (w *Worker) seed() {
	for len(w.pending) > 0 {
		t := w.pending[0]
		w.pending = w.pending[1:]
		if _, exists := w.active[t.Addr]; exists {
			w.log.WithField("address", t.Addr).Warn("duplicate target address, first wins")
			continue
		}
		s := NewScanState(t.Addr, t.Host, w.cfg.IdentifyEnabled, w.cfg.MaxRetries, w.cfg.Spread)
		w.active[t.Addr] = s
		startNextScan(s)
		w.flush(s)
		w.finishIfDone(s)
		return
	}
}

// flush pops queued packets while the pacing gate allows it, advancing
// TimeoutTill by Interval after every send.
func (w *Worker) flush(s *ScanState) {
	now := time.Now()
	for len(s.Queue) > 0 {
		if !s.MaySend(now) {
			break
		}
		pkt := s.Queue[0]
		s.Queue = s.Queue[1:]

		raw, err := pkt.Pack()
		if err != nil {
			w.log.WithError(err).Warn("failed to pack outgoing packet")
			continue
		}
		if err := w.conn.SendTo(raw, s.Address); err != nil {
			w.log.WithFields(log.Fields{"address": s.Address, "error": err}).Warn("sendto failed")
			continue
		}
		if s.Interval != nil {
			t := now.Add(*s.Interval)
			s.TimeoutTill = &t
		}
	}
}

// handleReadable drains exactly one datagram from whichever socket
// poll reported readable, correlates it to an active target, and runs
// it through the KoD check and the current phase's receive callback.
func (w *Worker) handleReadable(pr nettransport.PollResult) {
	buf := make([]byte, 1024)
	var n int
	var from netip.AddrPort
	var err error
	if pr.Readable4 {
		n, from, err = w.conn.Recv4(buf)
	} else {
		n, from, err = w.conn.Recv6(buf)
	}
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return
		}
		w.log.WithError(err).Warn("recv failed")
		return
	}

	pkt := ntpwire.Parse(buf[:n])
	state, ok := w.active[from]
	if !ok {
		w.log.WithField("address", from).Debug("reply from address outside target list, dropping")
		return
	}
	state.PktsReceived = append(state.PktsReceived, pkt)

	forced := false
	if pkt.Kind == ntpwire.KindStandard && pkt.Standard.IsKoD() {
		forced = handleKoD(state, pkt.Standard, time.Now())
	}

	status := dispatchReceive(state, pkt)
	switch {
	case forced:
		forceDone(state)
	case status == Done:
		startNextScan(state)
	}

	w.flush(state)
	w.finishIfDone(state)
}

// handleTimeouts runs on every poll timeout: any target with an empty
// outgoing queue gets its sub-scan's timeout callback invoked.
func (w *Worker) handleTimeouts() {
	for addr, state := range w.active {
		if len(state.Queue) == 0 {
			if dispatchTimeout(state) == Done {
				startNextScan(state)
			}
		}
		w.flush(state)
		if state.CurrentPhase == PhaseDone {
			w.finish(addr, state)
		}
	}
}

func (w *Worker) finishIfDone(s *ScanState) {
	if s.CurrentPhase == PhaseDone {
		w.finish(s.Address, s)
	}
}

// finish removes a completed target from the active set, publishes its
// result, and seeds the next pending target in its place.
func (w *Worker) finish(addr netip.AddrPort, s *ScanState) {
	delete(w.active, addr)
	result := buildResult(s)
	w.log.WithFields(log.Fields{
		"address":      addr,
		"daemon_guess": result.DaemonGuess,
		"event":        "finished",
	}).Info("target scan complete")
	w.cfg.Metrics.observe(result)
	w.results <- result
	w.seed()
}
