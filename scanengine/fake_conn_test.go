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
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/ntpscan/ntpfp/nettransport"
)

// fakeDatagram is one queued inbound packet in the fake transport.
type fakeDatagram struct {
	data []byte
	from netip.AddrPort
}

type sentPacket struct {
	data []byte
	to   netip.AddrPort
}

// fakeConn is a hand-written double for nettransport.Conn: every
// SendTo is handed to an optional scripted responder, which decides
// whether (and with what bytes) the "target" replies. This lets tests
// build a reply that correlates with whatever the worker actually
// sent (e.g. echoing an identify nonce into org) without needing to
// predict randomly generated values up front.
type fakeConn struct {
	respond func(sent []byte, to netip.AddrPort) (reply []byte, ok bool)

	sent []sentPacket
	in4  []fakeDatagram
	in6  []fakeDatagram
}

func (f *fakeConn) SendTo(pkt []byte, addr netip.AddrPort) error {
	f.sent = append(f.sent, sentPacket{data: append([]byte(nil), pkt...), to: addr})
	if f.respond == nil {
		return nil
	}
	reply, ok := f.respond(pkt, addr)
	if !ok {
		return nil
	}
	dg := fakeDatagram{data: reply, from: addr}
	if addr.Addr().Is4() {
		f.in4 = append(f.in4, dg)
	} else {
		f.in6 = append(f.in6, dg)
	}
	return nil
}

func (f *fakeConn) Poll(timeoutMs int) (nettransport.PollResult, error) {
	return nettransport.PollResult{
		Readable4: len(f.in4) > 0,
		Readable6: len(f.in6) > 0,
	}, nil
}

func (f *fakeConn) Recv4(buf []byte) (int, netip.AddrPort, error) {
	return f.recv(&f.in4, buf)
}

func (f *fakeConn) Recv6(buf []byte) (int, netip.AddrPort, error) {
	return f.recv(&f.in6, buf)
}

func (f *fakeConn) recv(q *[]fakeDatagram, buf []byte) (int, netip.AddrPort, error) {
	if len(*q) == 0 {
		return 0, netip.AddrPort{}, unix.EAGAIN
	}
	dg := (*q)[0]
	*q = (*q)[1:]
	return copy(buf, dg.data), dg.from, nil
}

func (f *fakeConn) Close() error { return nil }
