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

package resultio

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntpscan/ntpfp/scanengine"
)

func sampleResults() []scanengine.ScanResult {
	return []scanengine.ScanResult{
		{
			Address:     netip.MustParseAddrPort("203.0.113.5:123"),
			Target:      "ntp.example.com",
			DaemonGuess: "ntpd",
			RefID:       "GPS\\x00",
			Versions:    map[uint8]uint8{3: 4, 4: 4},
			Monlist:     true,
			Variables:   true,
		},
		{
			Address:     netip.MustParseAddrPort("[2001:db8::1]:123"),
			Target:      "ntp6.example.com",
			DaemonGuess: "offline",
			Versions:    map[uint8]uint8{},
		},
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("yaml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_DefaultsToPlain(t *testing.T) {
	w, err := New("", &bytes.Buffer{})
	require.NoError(t, err)
	_, ok := w.(*plainWriter)
	assert.True(t, ok)
}

func TestCSVWriter_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := New("csv", &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "address,refid,v0,v1,v2,v3,v4,v5,v6,v7,monlist,variables")
	assert.Contains(t, out, "203.0.113.5:123,GPS\\x00,,,,4,4,,,,true,true")
	assert.Contains(t, out, "[2001:db8::1]:123,,,,,,,,,,false,false")
}

func TestPlainWriter_RendersWithoutError(t *testing.T) {
	var buf bytes.Buffer
	w, err := New("plain", &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "203.0.113.5:123")
	assert.Contains(t, out, "ntpd")
}

func TestXMLWriter_RoundTripStructure(t *testing.T) {
	var buf bytes.Buffer
	w, err := New("xml", &buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleResults()))

	out := buf.String()
	assert.Contains(t, out, "<scan>")
	assert.Contains(t, out, "<result address=\"203.0.113.5:123\" target=\"ntp.example.com\">")
	assert.Contains(t, out, "<refid>GPS\\x00</refid>")
	assert.Contains(t, out, "<version number=\"3\" mode=\"4\"></version>")
	assert.Contains(t, out, "<daemon_guess>offline</daemon_guess>")
}
