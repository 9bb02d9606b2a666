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
	log "github.com/sirupsen/logrus"

	"github.com/ntpscan/ntpfp/ntpwire"
)

var monlistImplementations = [...]uint8{ntpwire.ImplXNTPD, ntpwire.ImplXNTPDOld}
var monlistReqcodes = [...]uint8{ntpwire.ReqMonGetlist, ntpwire.ReqMonGetlist1}

// monlistInit enqueues the full cross product of implementation x
// reqcode, since there's no way to know in advance which legacy
// combination a given ntpd build answers to.
func monlistInit(s *ScanState) {
	for _, impl := range monlistImplementations {
		for _, reqcode := range monlistReqcodes {
			s.Enqueue(ntpwire.AnyPacket{
				Kind: ntpwire.KindPrivate,
				Private: &ntpwire.Private{
					Version:        2,
					Implementation: impl,
					Reqcode:        reqcode,
				},
			})
		}
	}
}

func monlistReceive(s *ScanState, pkt ntpwire.AnyPacket) Status {
	if pkt.Kind != ntpwire.KindPrivate {
		return Continue
	}
	p := pkt.Private
	if p.Reqcode != ntpwire.ReqMonGetlist && p.Reqcode != ntpwire.ReqMonGetlist1 {
		return Continue
	}
	if !p.Response {
		log.WithField("address", s.Address).Debug("monlist: echoed request, treating as complete")
		return Done
	}
	if p.Error != 0 {
		log.WithFields(log.Fields{"address": s.Address, "error": p.Error}).Info("monlist: remote returned an error")
		return Continue
	}
	s.SupportsMonlist = true
	return Done
}

func monlistTimeout(s *ScanState) Status {
	if s.MonlistRetries < s.MaxRetries {
		s.MonlistRetries++
		monlistInit(s)
		return Continue
	}
	return Done
}
