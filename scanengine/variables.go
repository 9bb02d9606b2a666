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

// variablesInit issues one mode 6 READVAR request.
func variablesInit(s *ScanState) {
	s.Enqueue(ntpwire.AnyPacket{
		Kind: ntpwire.KindControl,
		Control: &ntpwire.Control{
			Version: 3,
			Opcode:  ntpwire.OpcodeReadVariables,
		},
	})
}

func variablesReceive(s *ScanState, pkt ntpwire.AnyPacket) Status {
	if pkt.Kind != ntpwire.KindControl || pkt.Control.Opcode != ntpwire.OpcodeReadVariables {
		return Continue
	}
	c := pkt.Control
	if !c.Response {
		log.WithField("address", s.Address).Debug("variables: echoed request, treating as complete")
		return Done
	}
	if c.Error {
		log.WithField("address", s.Address).Info("variables: remote returned an error")
		return Done
	}
	text := c.DataString()
	s.Mode6Variables = &text
	return Done
}

func variablesTimeout(s *ScanState) Status {
	if s.VariablesRetries < s.MaxRetries {
		s.VariablesRetries++
		variablesInit(s)
		return Continue
	}
	return Done
}
