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

import "github.com/pkg/errors"

// PrivateSizeBytes is the minimum size of a Private header, with no items.
const PrivateSizeBytes = 8

// Implementation numbers and request codes for the ntpdc monlist family.
// IMPL_XNTPD_OLD predates ntpd's IPv6 rework; IMPL_XNTPD is current.
const (
	ImplXNTPDOld = 2
	ImplXNTPD    = 3

	ReqMonGetlist  = 20
	ReqMonGetlist1 = 42
)

// Private is a mode 7 ntpdc private management packet. There is no RFC
// for this one; it's ntpd's de-facto legacy remote-management protocol,
// most notoriously the `monlist` request abused for reflection attacks.
type Private struct {
	Response       bool
	More           bool
	Version        uint8
	Auth           bool
	Sequence       uint8 // 7 bits
	Implementation uint8
	Reqcode        uint8
	Error          uint8 // 4 bits
	Nitems         uint16 // 12 bits
	Size           uint16
	Items          []byte
}

// ParsePrivate decodes a Private packet. Per spec, the wire mode field
// (always 7 on send) is not verified on parse — ntpdc doesn't check it
// either, and a stricter reader that wants to can reject mode != 7 itself.
func ParsePrivate(data []byte) (*Private, error) {
	if len(data) < PrivateSizeBytes {
		return nil, errors.Errorf("private packet too short: %d bytes", len(data))
	}

	flags := data[0]
	errNitems := beUint16(data[4:6])

	p := &Private{
		Response:       flags&0x80 != 0,
		More:           flags&0x40 != 0,
		Version:        (flags >> 3) & 0x07,
		Auth:           data[1]&0x80 != 0,
		Sequence:       data[1] & 0x7f,
		Implementation: data[2],
		Reqcode:        data[3],
		Error:          uint8(errNitems >> 12),
		Nitems:         errNitems & 0x0fff,
		Size:           beUint16(data[6:8]),
	}
	p.Items = make([]byte, len(data)-PrivateSizeBytes)
	copy(p.Items, data[PrivateSizeBytes:])
	return p, nil
}

// Pack encodes p into its wire form.
func (p *Private) Pack() ([]byte, error) {
	out := make([]byte, PrivateSizeBytes+len(p.Items))
	var flags uint8
	if p.Response {
		flags |= 0x80
	}
	if p.More {
		flags |= 0x40
	}
	flags |= (p.Version & 0x07) << 3
	flags |= 0x07 // mode 7, always
	out[0] = flags

	var authSeq uint8
	if p.Auth {
		authSeq |= 0x80
	}
	authSeq |= p.Sequence & 0x7f
	out[1] = authSeq

	out[2] = p.Implementation
	out[3] = p.Reqcode

	errNitems := (uint16(p.Error&0x0f) << 12) | (p.Nitems & 0x0fff)
	putBeUint16(out[4:6], errNitems)
	putBeUint16(out[6:8], p.Size)
	copy(out[8:], p.Items)
	return out, nil
}
