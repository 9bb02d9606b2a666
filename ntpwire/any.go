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

import "time"

// Kind discriminates the variants of AnyPacket.
type Kind int

// The four packet kinds a datagram off the wire can decode to.
const (
	KindInvalid Kind = iota
	KindStandard
	KindControl
	KindPrivate
)

// AnyPacket is a tagged union over the three wire flavours this scanner
// speaks, plus an Invalid fallback for anything that parses as none of
// them. There is no inheritance here, just a discriminant and three
// optional payloads; callers switch on Kind and ignore what they don't
// care about.
type AnyPacket struct {
	Kind     Kind
	Standard *Standard
	Control  *Control
	Private  *Private
	Raw      []byte
}

// Parse dispatches a received datagram to the three flavour parsers in
// turn: Standard first (since Control and Private packets would, byte
// for byte, otherwise look like Standard packets with mode 6/7 - which
// ParseStandard explicitly rejects), then Control, then Private.
// Anything none of them accept comes back as KindInvalid.
func Parse(data []byte) AnyPacket {
	if std, err := ParseStandard(data); err == nil {
		return AnyPacket{Kind: KindStandard, Standard: std}
	}
	if ctrl, err := ParseControl(data); err == nil {
		return AnyPacket{Kind: KindControl, Control: ctrl}
	}
	if priv, err := ParsePrivate(data); err == nil {
		return AnyPacket{Kind: KindPrivate, Private: priv}
	}
	return AnyPacket{Kind: KindInvalid, Raw: append([]byte(nil), data...)}
}

// Pack encodes whichever variant is set back to wire bytes.
func (a AnyPacket) Pack() ([]byte, error) {
	switch a.Kind {
	case KindStandard:
		return a.Standard.Pack()
	case KindControl:
		return a.Control.Pack()
	case KindPrivate:
		return a.Private.Pack()
	default:
		return append([]byte(nil), a.Raw...), nil
	}
}

// ntpEpochOffsetSeconds is the difference between the NTP epoch
// (1 Jan 1900) and the Unix epoch (1 Jan 1970), in seconds.
const ntpEpochOffsetSeconds = int64(2208988800)

// NTPTimeToUnix converts a 32-bit NTP seconds/fraction pair into a wall
// clock time. Used only for debug formatting; this scanner never
// adjusts the local clock from it.
func NTPTimeToUnix(seconds, fraction uint32) time.Time {
	secs := int64(seconds) - ntpEpochOffsetSeconds
	nanos := (int64(fraction) * time.Second.Nanoseconds()) >> 32
	return time.Unix(secs, nanos)
}
