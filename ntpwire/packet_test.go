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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zmapClientProbe is the 48-byte NTP client probe packet used by zmap and
// nmap's ntp-info probe, cited verbatim in the scanner's testable properties.
var zmapClientProbe = []byte{
	0xe3, 0x00, 0x04, 0xfa, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xc5, 0x4f, 0x23, 0x4b, 0x71, 0xb1, 0x52, 0xf3,
}

func TestParseStandard_FixedVector(t *testing.T) {
	p, err := ParseStandard(zmapClientProbe)
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.Leap)
	assert.EqualValues(t, 4, p.Version)
	assert.EqualValues(t, 3, p.Mode)
	assert.EqualValues(t, 0, p.Stratum)
	assert.EqualValues(t, 4, p.Poll)
	assert.EqualValues(t, -6, p.Precision)
	assert.EqualValues(t, 0x00010000, p.RootDelay)
	assert.EqualValues(t, 0x00010000, p.RootDisp)
	assert.Equal(t, [4]byte{0, 0, 0, 0}, p.RefID)
	assert.EqualValues(t, 0xc54f234b71b152f3, p.Xmt)
	assert.Nil(t, p.KeyID)
	assert.Nil(t, p.Dgst)
}

func TestStandard_RoundTrip(t *testing.T) {
	cases := []*Standard{
		{Leap: 0, Version: 4, Mode: ModeClient, Stratum: 0, Poll: -10, Precision: -20,
			RootDelay: 1, RootDisp: 2, RefID: [4]byte{'R', 'A', 'T', 'E'},
			RefTime: 1, Org: 2, Rec: 3, Xmt: 0xdeadbeefcafebabe},
		{Leap: 3, Version: 1, Mode: ModeServer, Stratum: 15, Poll: 127, Precision: -128,
			RootDelay: 0xffffffff, Xmt: 0},
	}
	for _, want := range cases {
		raw, err := want.Pack()
		require.NoError(t, err)
		require.Len(t, raw, StandardSizeBytes)
		got, err := ParseStandard(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestStandard_RejectsControlAndPrivateModes(t *testing.T) {
	data := make([]byte, StandardSizeBytes)
	data[0] = 6 // mode 6
	_, err := ParseStandard(data)
	assert.Error(t, err)

	data[0] = 7 // mode 7
	_, err = ParseStandard(data)
	assert.Error(t, err)
}

func TestStandard_PackRejectsAuthenticator(t *testing.T) {
	keyid := uint32(5)
	p := &Standard{KeyID: &keyid}
	_, err := p.Pack()
	assert.Error(t, err)
}

func TestControl_RoundTrip(t *testing.T) {
	for opcode := uint8(0); opcode < 32; opcode++ {
		want := &Control{
			Version:  3,
			Response: opcode%2 == 0,
			Error:    opcode%3 == 0,
			More:     opcode%5 == 0,
			Opcode:   opcode,
			Sequence: uint16(opcode) * 7,
			Status:   uint16(opcode) * 11,
			AssocID:  uint16(opcode) * 13,
			Data:     make([]byte, int(opcode)*17%4096),
		}
		for i := range want.Data {
			want.Data[i] = byte(i)
		}
		raw, err := want.Pack()
		require.NoError(t, err)
		got, err := ParseControl(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestControl_RejectsNonMode6(t *testing.T) {
	data := make([]byte, ControlSizeBytes)
	data[0] = 3 // mode 3
	_, err := ParseControl(data)
	assert.Error(t, err)
}

func TestControl_RejectsTruncatedPayload(t *testing.T) {
	c := &Control{Version: 3, Opcode: 2, Data: []byte("hello")}
	raw, err := c.Pack()
	require.NoError(t, err)
	_, err = ParseControl(raw[:len(raw)-2])
	assert.Error(t, err)
}

func TestControl_DataStringSentinel(t *testing.T) {
	c := &Control{Data: []byte{0xff, 0xfe, 0xfd}}
	assert.Equal(t, "failed to convert to utf-8", c.DataString())

	c2 := &Control{Data: []byte("state=4, offset=0.001")}
	assert.Equal(t, "state=4, offset=0.001", c2.DataString())
}

func TestPrivate_RoundTrip(t *testing.T) {
	for errv := uint8(0); errv < 16; errv++ {
		nitems := uint16(errv) * 271 % 4096
		want := &Private{
			Response:       errv%2 == 0,
			More:           errv%3 == 0,
			Version:        2,
			Auth:           errv%4 == 0,
			Sequence:       errv * 5 % 0x80,
			Implementation: ImplXNTPD,
			Reqcode:        ReqMonGetlist,
			Error:          errv,
			Nitems:         nitems,
			Size:           24,
			Items:          make([]byte, int(nitems%64)),
		}
		raw, err := want.Pack()
		require.NoError(t, err)
		got, err := ParsePrivate(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPrivate_TooShort(t *testing.T) {
	_, err := ParsePrivate(make([]byte, 4))
	assert.Error(t, err)
}

func TestParse_Dispatch(t *testing.T) {
	any := Parse(zmapClientProbe)
	assert.Equal(t, KindStandard, any.Kind)
	require.NotNil(t, any.Standard)

	ctrl := &Control{Version: 3, Opcode: OpcodeReadVariables}
	raw, err := ctrl.Pack()
	require.NoError(t, err)
	any = Parse(raw)
	assert.Equal(t, KindControl, any.Kind)

	any = Parse([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, KindInvalid, any.Kind)
}

func TestStandard_RefIDString(t *testing.T) {
	p := &Standard{RefID: [4]byte{'R', 'A', 'T', 'E'}}
	s, ok := p.RefIDString()
	assert.True(t, ok)
	assert.Equal(t, "RATE", s)

	p2 := &Standard{RefID: [4]byte{0xff, 0, 0, 0}}
	_, ok = p2.RefIDString()
	assert.False(t, ok)
}
