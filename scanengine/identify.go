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
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ntpscan/ntpfp/ntpwire"
)

var identifyRand = rand.New(rand.NewSource(time.Now().UnixNano()))

const identifyMaxVersion = 7

// identifyInit probes every NTP version 0..7 with a Standard mode-3
// packet carrying a fresh random xmt nonce; the reply's org field is
// later matched back against that nonce to correlate it.
func identifyInit(s *ScanState) {
	for v := uint8(0); v <= identifyMaxVersion; v++ {
		nonce := identifyRand.Uint64()
		s.Versions[v] = &VersionAttempt{Xmt: nonce}
		s.Enqueue(ntpwire.AnyPacket{
			Kind: ntpwire.KindStandard,
			Standard: &ntpwire.Standard{
				Version: v,
				Mode:    ntpwire.ModeClient,
				Xmt:     nonce,
			},
		})
	}
}

func identifyReceive(s *ScanState, pkt ntpwire.AnyPacket) Status {
	if pkt.Kind != ntpwire.KindStandard {
		return Continue
	}
	p := pkt.Standard

	for _, attempt := range s.Versions {
		if attempt.Xmt == p.Org && attempt.Response == nil {
			attempt.Response = p
			break
		}
	}

	if p.IsKoD() {
		if refid, ok := p.RefIDString(); ok && refid == "RATE" {
			log.WithField("address", s.Address).Debug("identify: KoD RATE, re-enqueuing unresolved versions")
			for v, attempt := range s.Versions {
				if attempt.Response == nil {
					s.Enqueue(ntpwire.AnyPacket{
						Kind: ntpwire.KindStandard,
						Standard: &ntpwire.Standard{
							Version: v,
							Mode:    ntpwire.ModeClient,
							Xmt:     attempt.Xmt,
						},
					})
				}
			}
		}
	}

	for _, attempt := range s.Versions {
		if attempt.Response == nil {
			return Continue
		}
	}
	return Done
}

func identifyTimeout(s *ScanState) Status {
	allResolvedOrExhausted := true
	anyAnswered := false
	for _, attempt := range s.Versions {
		if attempt.Response != nil {
			anyAnswered = true
			continue
		}
		if attempt.Retries < s.MaxRetries {
			allResolvedOrExhausted = false
		}
	}

	if allResolvedOrExhausted {
		guess := "unknown"
		if !anyAnswered {
			guess = "offline"
		}
		s.DaemonGuess = &guess
		return Done
	}

	for v, attempt := range s.Versions {
		if attempt.Response == nil && attempt.Retries < s.MaxRetries {
			attempt.Retries++
			s.Enqueue(ntpwire.AnyPacket{
				Kind: ntpwire.KindStandard,
				Standard: &ntpwire.Standard{
					Version: v,
					Mode:    ntpwire.ModeClient,
					Xmt:     attempt.Xmt,
				},
			})
		}
	}
	return Continue
}
