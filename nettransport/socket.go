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
Package nettransport provides the non-blocking, dual-stack UDP transport a
scan worker multiplexes over. One Socket owns one IPv4 and one IPv6
datagram socket; a worker goroutine drives both with a single unix.Poll
call instead of spawning a goroutine per target.
*/
package nettransport

import (
	"net"
	"net/netip"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Socket is a pair of non-blocking UDP sockets, one per address family,
// sharing a single poll loop.
type Socket struct {
	fd4 int
	fd6 int
}

// New opens and binds the IPv4 and IPv6 sockets a worker will poll. Both
// bind to the wildcard address on an ephemeral port; this is a scanner,
// not a server, so there is no fixed listen port to claim.
func New() (*Socket, error) {
	fd4, err := openNonblocking(unix.AF_INET)
	if err != nil {
		return nil, errors.Wrap(err, "opening ipv4 socket")
	}
	fd6, err := openNonblocking(unix.AF_INET6)
	if err != nil {
		unix.Close(fd4)
		return nil, errors.Wrap(err, "opening ipv6 socket")
	}
	return &Socket{fd4: fd4, fd6: fd6}, nil
}

func openNonblocking(domain int) (int, error) {
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return 0, errors.Wrap(err, "socket")
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return 0, errors.Wrap(err, "set nonblock")
	}
	var bindAddr unix.Sockaddr
	if domain == unix.AF_INET {
		bindAddr = &unix.SockaddrInet4{Port: 0}
	} else {
		bindAddr = &unix.SockaddrInet6{Port: 0}
	}
	if err := unix.Bind(fd, bindAddr); err != nil {
		unix.Close(fd)
		return 0, errors.Wrap(err, "bind")
	}
	return fd, nil
}

// Close closes both underlying file descriptors.
func (s *Socket) Close() error {
	err4 := unix.Close(s.fd4)
	err6 := unix.Close(s.fd6)
	if err4 != nil {
		return err4
	}
	return err6
}

// SendTo writes pkt to addr over whichever socket matches its family.
// EAGAIN is returned to the caller rather than retried; the caller is
// expected to treat it like any other transient send failure and retry
// the target on its own schedule.
func (s *Socket) SendTo(pkt []byte, addr netip.AddrPort) error {
	sa := addrPortToSockaddr(addr)
	fd := s.fd4
	if addr.Addr().Is6() && !addr.Addr().Is4In6() {
		fd = s.fd6
	}
	return unix.Sendto(fd, pkt, 0, sa)
}

// PollResult reports which of the two sockets became readable.
type PollResult struct {
	Readable4 bool
	Readable6 bool
}

// Poll blocks up to timeoutMs milliseconds waiting for either socket to
// become readable. A timeoutMs of 0 polls without blocking.
func (s *Socket) Poll(timeoutMs int) (PollResult, error) {
	fds := []unix.PollFd{
		{Fd: int32(s.fd4), Events: unix.POLLIN},
		{Fd: int32(s.fd6), Events: unix.POLLIN},
	}
	_, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return PollResult{}, nil
		}
		return PollResult{}, errors.Wrap(err, "poll")
	}
	return PollResult{
		Readable4: fds[0].Revents&unix.POLLIN != 0,
		Readable6: fds[1].Revents&unix.POLLIN != 0,
	}, nil
}

// Recv4 and Recv6 read one pending datagram off the respective socket.
// Callers should only invoke them after Poll reports the matching
// Readable flag; both return unix.EAGAIN if called when nothing is
// pending, which the worker loop treats as "nothing more to drain".
func (s *Socket) Recv4(buf []byte) (int, netip.AddrPort, error) {
	return recvFrom(s.fd4, buf)
}

func (s *Socket) Recv6(buf []byte) (int, netip.AddrPort, error) {
	return recvFrom(s.fd6, buf)
}

func recvFrom(fd int, buf []byte) (int, netip.AddrPort, error) {
	n, from, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return n, sockaddrToAddrPort(from), nil
}

func addrPortToSockaddr(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr()
	if addr.Is4() || addr.Is4In6() {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}
	}
	return &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
}

func sockaddrToAddrPort(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr).Unmap(), uint16(sa.Port))
	}
	return netip.AddrPort{}
}

// ResolveTargets resolves host into its usable IP addresses, IPv4 first
// then IPv6, matching how NTP daemons are conventionally dual-homed.
func ResolveTargets(host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", host)
	}
	var v4, v6 []netip.Addr
	for _, ip := range ips {
		a, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		a = a.Unmap()
		if a.Is4() {
			v4 = append(v4, a)
		} else {
			v6 = append(v6, a)
		}
	}
	return append(v4, v6...), nil
}
