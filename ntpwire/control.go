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

package ntpwire

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ControlSizeBytes is the minimum size of a Control header, with no payload.
const ControlSizeBytes = 12

// OpcodeReadStatus and OpcodeReadVariables are the two mode 6 read opcodes.
// The scanner only issues and recognises OpcodeReadVariables.
const (
	OpcodeReadStatus    = 1
	OpcodeReadVariables = 2
)

// Control is a mode 6 (NTP control) message, RFC 1305 Appendix B. It is
// missing from the newer RFC 5905 but every ntpd still answers it.
type Control struct {
	Version  uint8
	Response bool
	Error    bool
	More     bool
	Opcode   uint8
	Sequence uint16
	Status   uint16
	AssocID  uint16
	Offset   uint16
	Data     []byte
}

// ParseControl decodes a Control message. Offset is honoured: the payload
// is read starting at 12+Offset, and a header that claims more payload
// than the datagram holds is rejected.
func ParseControl(data []byte) (*Control, error) {
	if len(data) < ControlSizeBytes {
		return nil, errors.Errorf("control message too short: %d bytes", len(data))
	}

	mode := data[0] & 0x07
	if mode != 6 {
		return nil, errors.Errorf("mode %d is not control (6)", mode)
	}

	flags := data[1] >> 5
	c := &Control{
		Version:  (data[0] >> 3) & 0x07,
		Response: flags&0x4 != 0,
		Error:    flags&0x2 != 0,
		More:     flags&0x1 != 0,
		Opcode:   data[1] & 0x1f,
		Sequence: beUint16(data[2:4]),
		Status:   beUint16(data[4:6]),
		AssocID:  beUint16(data[6:8]),
		Offset:   beUint16(data[8:10]),
	}
	count := beUint16(data[10:12])

	start := ControlSizeBytes + int(c.Offset)
	end := start + int(count)
	if end > len(data) {
		return nil, errors.Errorf("control payload claims %d bytes at offset %d but packet is %d bytes", count, c.Offset, len(data))
	}
	c.Data = make([]byte, count)
	copy(c.Data, data[start:end])
	return c, nil
}

// Pack encodes c into its wire form. Offset is always emitted as 0; this
// scanner never needs to address a payload fragment when sending.
func (c *Control) Pack() ([]byte, error) {
	out := make([]byte, ControlSizeBytes+len(c.Data))
	out[0] = (c.Version << 3) ^ 6
	var flags uint8
	if c.Response {
		flags |= 0x4
	}
	if c.Error {
		flags |= 0x2
	}
	if c.More {
		flags |= 0x1
	}
	out[1] = (flags << 5) | (c.Opcode & 0x1f)
	putBeUint16(out[2:4], c.Sequence)
	putBeUint16(out[4:6], c.Status)
	putBeUint16(out[6:8], c.AssocID)
	putBeUint16(out[8:10], 0)
	putBeUint16(out[10:12], uint16(len(c.Data)))
	copy(out[12:], c.Data)
	return out, nil
}

// DataString renders Data as UTF-8, or the sentinel string used when it
// is not valid UTF-8 (ntpd's READVAR payload is always ASCII key=value
// pairs in practice, but a non-conforming daemon could answer otherwise).
func (c *Control) DataString() string {
	if !utf8.Valid(c.Data) {
		return "failed to convert to utf-8"
	}
	return string(c.Data)
}
