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
Package targetlist turns the --iplist file and positional host arguments
into the resolved scanengine.Target slice a scan run fans out over.
*/
package targetlist

import (
	"bufio"
	"net/netip"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ntpscan/ntpfp/nettransport"
	"github.com/ntpscan/ntpfp/scanengine"
)

const ntpPort = 123

// ReadFile returns the non-empty, non-comment lines of an --iplist file,
// one host per line.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening iplist %s", path)
	}
	defer f.Close()

	var hosts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading iplist %s", path)
	}
	return hosts, nil
}

// Resolve expands every host string into its scanengine.Target(s). A
// host produces one independent Target per resolved address (IPv4
// addresses first, then IPv6), all sharing the original host string for
// reporting.
func Resolve(hosts []string) ([]scanengine.Target, error) {
	var targets []scanengine.Target
	for _, host := range hosts {
		addrs, port, err := splitHostPort(host)
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			targets = append(targets, scanengine.Target{
				Addr: netip.AddrPortFrom(addr, port),
				Host: host,
			})
		}
	}
	return targets, nil
}

// splitHostPort resolves a bare host or host:port string into its
// addresses and port, defaulting to the standard NTP port 123.
func splitHostPort(host string) ([]netip.Addr, uint16, error) {
	target := host
	port := uint16(ntpPort)

	if ap, err := netip.ParseAddrPort(host); err == nil {
		return []netip.Addr{ap.Addr()}, ap.Port(), nil
	}
	if idx := strings.LastIndex(host, ":"); idx >= 0 && !strings.Contains(host, "::") {
		if n, err := parsePort(host[idx+1:]); err == nil {
			target = host[:idx]
			port = n
		}
	}

	addrs, err := nettransport.ResolveTargets(target)
	if err != nil {
		return nil, 0, err
	}
	if len(addrs) == 0 {
		log.WithField("host", host).Warn("host resolved to no usable addresses")
	}
	return addrs, port, nil
}

func parsePort(s string) (uint16, error) {
	var n uint16
	if s == "" {
		return 0, errors.New("empty port")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("invalid port %q", s)
		}
		n = n*10 + uint16(c-'0')
	}
	return n, nil
}
