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
Package ntpwire implements the wire encoding of the three NTP packet
flavours this scanner speaks: the standard NTPv1-v4 mode 3/4 packet
(RFC 5905 7.3), the mode 6 control message (RFC 1305 Appendix B) and the
legacy ntpdc mode 7 private management packet.
*/
package ntpwire

import (
	"github.com/pkg/errors"
)

// StandardSizeBytes is the mandatory size of a Standard packet, header only.
const StandardSizeBytes = 48

// KeyIDSizeBytes is the size the optional authenticator keyid adds.
const KeyIDSizeBytes = 4

// DigestSizeBytes is the size the optional authenticator digest adds.
const DigestSizeBytes = 16

/*
Standard is an NTPv1-v4 mode 3/4 packet.

	0                   1                   2                   3
	0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |LI | VN  |Mode |    Stratum     |     Poll      |  Precision   |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                         Root Delay                            |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                         Root Dispersion                       |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                          Reference ID                         |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                      Reference Timestamp (64)                 |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                      Origin Timestamp (64)                    |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                      Receive Timestamp (64)                   |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                      Transmit Timestamp (64)                  |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                  Key Identifier (optional, 32)                |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
   |                 Message Digest (optional, 128)                |
   +-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
*/
type Standard struct {
	Leap      uint8 // 2 bits
	Version   uint8 // 3 bits
	Mode      uint8 // 3 bits
	Stratum   uint8
	Poll      int8
	Precision int8

	RootDelay uint32
	RootDisp  uint32
	RefID     [4]byte

	RefTime uint64
	Org     uint64
	Rec     uint64
	Xmt     uint64

	// KeyID and Dgst carry the (rarely used) packet authenticator. The
	// codec only ever decodes them; Pack refuses to emit a packet that
	// sets either, since this scanner never authenticates its probes.
	KeyID *uint32
	Dgst  *[16]byte
}

// ModeClient and ModeServer are the two Standard modes this scanner cares about.
const (
	ModeClient = 3
	ModeServer = 4
)

// IsKoD reports whether this reply is a Kiss-o'-Death packet (stratum 0).
func (p *Standard) IsKoD() bool {
	return p.Stratum == 0
}

// RefIDString renders RefID as ASCII when every byte is 7-bit clean,
// which is how KoD codes (RATE, DENY, RSTR, ...) and stratum-1 source
// tags are encoded on the wire.
func (p *Standard) RefIDString() (string, bool) {
	for _, b := range p.RefID {
		if b > 0x7f {
			return "", false
		}
	}
	return string(p.RefID[:]), true
}

// ParseStandard decodes a Standard packet. It rejects anything shorter
// than StandardSizeBytes and anything whose mode byte decodes to 6 or 7,
// since those two mis-parse as Standard at the byte level and belong to
// the Control/Private flavours instead.
func ParseStandard(data []byte) (*Standard, error) {
	if len(data) < StandardSizeBytes {
		return nil, errors.Errorf("standard packet too short: %d bytes", len(data))
	}

	mode := data[0] & 0x07
	if mode == 6 || mode == 7 {
		return nil, errors.Errorf("mode %d belongs to control/private, not standard", mode)
	}

	p := &Standard{
		Leap:      data[0] >> 6,
		Version:   (data[0] >> 3) & 0x07,
		Mode:      mode,
		Stratum:   data[1],
		Poll:      int8(data[2]),
		Precision: int8(data[3]),
		RootDelay: beUint32(data[4:8]),
		RootDisp:  beUint32(data[8:12]),
		RefTime:   beUint64(data[16:24]),
		Org:       beUint64(data[24:32]),
		Rec:       beUint64(data[32:40]),
		Xmt:       beUint64(data[40:48]),
	}
	copy(p.RefID[:], data[12:16])

	if len(data) >= StandardSizeBytes+KeyIDSizeBytes {
		keyid := beUint32(data[48:52])
		p.KeyID = &keyid
	}
	if len(data) >= StandardSizeBytes+KeyIDSizeBytes+DigestSizeBytes {
		var dgst [16]byte
		copy(dgst[:], data[52:68])
		p.Dgst = &dgst
	}

	return p, nil
}

// Pack encodes p into its 48-byte wire form. It refuses to emit an
// authenticator: this scanner never signs its probes, so a caller that
// set KeyID or Dgst made a mistake upstream.
func (p *Standard) Pack() ([]byte, error) {
	if p.KeyID != nil || p.Dgst != nil {
		return nil, errors.New("packing an authenticated standard packet is unsupported")
	}

	out := make([]byte, StandardSizeBytes)
	out[0] = (p.Leap << 6) | (p.Version << 3) | (p.Mode & 0x07)
	out[1] = p.Stratum
	out[2] = uint8(p.Poll)
	out[3] = uint8(p.Precision)
	putBeUint32(out[4:8], p.RootDelay)
	putBeUint32(out[8:12], p.RootDisp)
	copy(out[12:16], p.RefID[:])
	putBeUint64(out[16:24], p.RefTime)
	putBeUint64(out[24:32], p.Org)
	putBeUint64(out[32:40], p.Rec)
	putBeUint64(out[40:48], p.Xmt)
	return out, nil
}
