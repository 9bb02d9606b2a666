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
	"fmt"
	"net/netip"
	"strings"

	"github.com/ntpscan/ntpfp/ntpwire"
)

// ScanResult is what a worker publishes once a target reaches Done.
type ScanResult struct {
	Address netip.AddrPort
	Target  string

	DaemonGuess string
	RefID       string
	// Versions maps each probed version to the mode number the target
	// answered with; a version with no entry never replied.
	Versions map[uint8]uint8

	Monlist       bool
	Variables     bool
	VariablesText string
	RateKoD       bool
}

// buildResult folds a finished ScanState into its published ScanResult.
func buildResult(s *ScanState) ScanResult {
	r := ScanResult{
		Address: s.Address,
		Target:  s.Target,
		Monlist: s.SupportsMonlist,
		RateKoD: s.RateKoDReceived,
	}
	if s.DaemonGuess != nil {
		r.DaemonGuess = *s.DaemonGuess
	}
	if s.Mode6Variables != nil {
		r.Variables = true
		r.VariablesText = *s.Mode6Variables
	}

	r.Versions = make(map[uint8]uint8, len(s.Versions))
	for v, attempt := range s.Versions {
		if attempt.Response != nil {
			r.Versions[v] = attempt.Response.Mode
		}
	}

	r.RefID = extractRefID(s.PktsReceived)
	return r
}

// extractRefID finds the first received mode-4 reply whose refid isn't
// a RATE KoD and renders it: literal ASCII for printable bytes, each
// other byte escaped as \xNN.
func extractRefID(received []ntpwire.AnyPacket) string {
	for _, pkt := range received {
		if pkt.Kind != ntpwire.KindStandard {
			continue
		}
		p := pkt.Standard
		if p.Mode != ntpwire.ModeServer {
			continue
		}
		if refid, ok := p.RefIDString(); ok && refid == "RATE" {
			continue
		}
		return renderRefID(p.RefID)
	}
	return ""
}

func renderRefID(b [4]byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c <= 0x7e {
			sb.WriteByte(c)
		} else {
			fmt.Fprintf(&sb, "\\x%02x", c)
		}
	}
	return sb.String()
}
