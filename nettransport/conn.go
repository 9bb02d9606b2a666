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

package nettransport

import "net/netip"

// Conn is the subset of Socket the scan engine depends on. Tests
// substitute a fake implementation instead of opening real sockets.
type Conn interface {
	SendTo(pkt []byte, addr netip.AddrPort) error
	Poll(timeoutMs int) (PollResult, error)
	Recv4(buf []byte) (int, netip.AddrPort, error)
	Recv6(buf []byte) (int, netip.AddrPort, error)
	Close() error
}

var _ Conn = (*Socket)(nil)
