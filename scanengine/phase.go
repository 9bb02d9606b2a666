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

import "github.com/ntpscan/ntpfp/ntpwire"

// startNextScan advances CurrentPhase to its successor and runs that
// phase's init. Queue is always cleared first, per spec.
func startNextScan(s *ScanState) {
	s.Queue = nil
	switch s.CurrentPhase {
	case PhasePrepare:
		s.CurrentPhase = PhaseVariables
		variablesInit(s)
	case PhaseVariables:
		s.CurrentPhase = PhaseMonlist
		monlistInit(s)
	case PhaseMonlist:
		if s.IdentifyEnabled {
			s.CurrentPhase = PhaseIdentify
			identifyInit(s)
		} else {
			s.CurrentPhase = PhaseDone
		}
	case PhaseIdentify:
		s.CurrentPhase = PhaseDone
	case PhaseDone:
		// terminal, nothing to do
	}
}

// forceDone jumps straight to Done, bypassing the normal successor
// table. Used for DENY/RSTR KoD and a rate back-off that has grown
// past the give-up threshold.
func forceDone(s *ScanState) {
	s.Queue = nil
	s.CurrentPhase = PhaseDone
}

// dispatchReceive hands a parsed packet to whichever sub-scan owns the
// current phase. Phases with no sub-scan (Prepare, Done) never see a
// receive call in practice, but return Continue defensively.
func dispatchReceive(s *ScanState, pkt ntpwire.AnyPacket) Status {
	switch s.CurrentPhase {
	case PhaseVariables:
		return variablesReceive(s, pkt)
	case PhaseMonlist:
		return monlistReceive(s, pkt)
	case PhaseIdentify:
		return identifyReceive(s, pkt)
	default:
		return Continue
	}
}

// dispatchTimeout hands a poll-timeout tick to the current phase's
// sub-scan. Only called by the worker when the target's queue is empty.
func dispatchTimeout(s *ScanState) Status {
	switch s.CurrentPhase {
	case PhaseVariables:
		return variablesTimeout(s)
	case PhaseMonlist:
		return monlistTimeout(s)
	case PhaseIdentify:
		return identifyTimeout(s)
	default:
		return Done
	}
}
