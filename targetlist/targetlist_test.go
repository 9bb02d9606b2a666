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

package targetlist

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFile_SkipsBlankAndCommentLines(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "iplist")
	require.NoError(t, err)
	_, err = f.WriteString("# a comment\n\n203.0.113.5\n  203.0.113.6  \n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	hosts, err := ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, []string{"203.0.113.5", "203.0.113.6"}, hosts)
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile("/nonexistent/does-not-exist")
	assert.Error(t, err)
}

func TestResolve_BareIPDefaultsToNTPPort(t *testing.T) {
	targets, err := Resolve([]string{"203.0.113.5"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, uint16(123), targets[0].Addr.Port())
	assert.Equal(t, "203.0.113.5", targets[0].Host)
}

func TestResolve_ExplicitPortOverridesDefault(t *testing.T) {
	targets, err := Resolve([]string{"203.0.113.5:1230"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, uint16(1230), targets[0].Addr.Port())
}

func TestResolve_IPv6LiteralWithBrackets(t *testing.T) {
	targets, err := Resolve([]string{"[2001:db8::1]:123"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.True(t, targets[0].Addr.Addr().Is6())
}

func TestResolve_BareIPv6NoBrackets(t *testing.T) {
	targets, err := Resolve([]string{"2001:db8::1"})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, uint16(123), targets[0].Addr.Port())
}
