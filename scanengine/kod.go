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
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ntpscan/ntpfp/ntpwire"
)

// giveUpRateKoD is the threshold at which repeated RATE back-off makes
// further probing pointless.
const giveUpRateKoD = 120 * time.Second

const minKoDInterval = 6 * time.Second

// handleKoD applies the cross-cutting Kiss-o'-Death reaction described
// in spec.md 4.7 to any Standard reply with stratum 0. It reports
// whether the target must now be forced straight to Done.
func handleKoD(s *ScanState, p *ntpwire.Standard, now time.Time) (forceToDone bool) {
	refid, ok := p.RefIDString()
	if !ok {
		return false
	}

	switch refid {
	case "RATE":
		until := now.Add(s.TimeoutOnRateKoD)
		s.TimeoutTill = &until
		s.TimeoutOnRateKoD *= 2

		var newInterval time.Duration
		if s.Interval != nil {
			newInterval = *s.Interval * 2
			if newInterval < minKoDInterval {
				newInterval = minKoDInterval
			}
		} else {
			newInterval = minKoDInterval
		}
		s.Interval = &newInterval
		s.RateKoDReceived = true

		log.WithFields(log.Fields{
			"address":  s.Address,
			"backoff":  s.TimeoutOnRateKoD,
			"interval": newInterval,
		}).Info("kiss-o'-death: RATE received")

		return s.TimeoutOnRateKoD >= giveUpRateKoD
	case "DENY", "RSTR":
		log.WithFields(log.Fields{"address": s.Address, "refid": refid}).Info("kiss-o'-death: refused, giving up on target")
		return true
	default:
		log.WithFields(log.Fields{"address": s.Address, "refid": refid}).Debug("kiss-o'-death: unrecognised refid")
		return false
	}
}
