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

/*
Package scanengine implements the per-target NTP fingerprinting state
machine: Prepare -> Variables -> Monlist -> [Identify] -> Done, driven by
a worker that multiplexes many targets over two UDP sockets.
*/
package scanengine

import (
	"net/netip"
	"time"

	"github.com/ntpscan/ntpfp/ntpwire"
)

// Phase is a step of the per-target state machine. It only ever advances.
type Phase int

const (
	PhasePrepare Phase = iota
	PhaseVariables
	PhaseMonlist
	PhaseIdentify
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePrepare:
		return "prepare"
	case PhaseVariables:
		return "variables"
	case PhaseMonlist:
		return "monlist"
	case PhaseIdentify:
		return "identify"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Status is what a sub-scan's receive/timeout callback reports back to
// the phase dispatcher.
type Status int

const (
	Continue Status = iota
	Done
)

// VersionAttempt tracks one probed NTP version in the Identify phase.
type VersionAttempt struct {
	Retries  uint32
	Xmt      uint64
	Response *ntpwire.Standard
}

// ScanState is the full mutable state of one in-flight target.
type ScanState struct {
	Address netip.AddrPort
	// Target is the original, pre-resolution host string the user typed.
	Target string

	CurrentPhase    Phase
	IdentifyEnabled bool

	Versions         map[uint8]*VersionAttempt
	Mode6Variables   *string
	SupportsMonlist  bool
	MonlistRetries   uint32
	VariablesRetries uint32

	Queue            []ntpwire.AnyPacket
	PktsReceived     []ntpwire.AnyPacket
	TimeoutTill      *time.Time
	TimeoutOnRateKoD time.Duration
	Interval         *time.Duration
	RateKoDReceived  bool
	MaxRetries       uint32
	DaemonGuess      *string
}

// NewScanState creates a target in its initial Prepare phase. If spread
// is non-zero, Interval is pre-set so the worker paces every send for
// this target from the very first packet, per the --spread flag.
func NewScanState(addr netip.AddrPort, target string, identifyEnabled bool, maxRetries uint32, spread time.Duration) *ScanState {
	s := &ScanState{
		Address:          addr,
		Target:           target,
		CurrentPhase:     PhasePrepare,
		IdentifyEnabled:  identifyEnabled,
		Versions:         make(map[uint8]*VersionAttempt),
		TimeoutOnRateKoD: 10 * time.Second,
		MaxRetries:       maxRetries,
	}
	if spread > 0 {
		s.Interval = &spread
	}
	return s
}

// Enqueue pushes a packet onto the target's outgoing queue.
func (s *ScanState) Enqueue(pkt ntpwire.AnyPacket) {
	s.Queue = append(s.Queue, pkt)
}

// MaySend reports whether the pacing gate allows a send at instant now.
func (s *ScanState) MaySend(now time.Time) bool {
	return s.TimeoutTill == nil || now.After(*s.TimeoutTill)
}
