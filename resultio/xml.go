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
	"encoding/xml"
	"io"

	"github.com/pkg/errors"

	"github.com/ntpscan/ntpfp/scanengine"
)

// xmlResultVersion is one <version> row nested inside a <result>.
type xmlResultVersion struct {
	Number int `xml:"number,attr"`
	Mode   int `xml:"mode,attr"`
}

type xmlResult struct {
	Address     string             `xml:"address,attr"`
	Target      string             `xml:"target,attr"`
	RefID       string             `xml:"refid"`
	DaemonGuess string             `xml:"daemon_guess"`
	Monlist     bool               `xml:"monlist"`
	Variables   bool               `xml:"variables"`
	RateKoD     bool               `xml:"rate_kod"`
	Versions    []xmlResultVersion `xml:"versions>version"`
}

type xmlScan struct {
	XMLName xml.Name    `xml:"scan"`
	Results []xmlResult `xml:"result"`
}

// xmlWriter is the one deliberate stdlib-only writer: none of the
// pack's dependencies render XML, so this uses encoding/xml directly.
type xmlWriter struct {
	out io.Writer
}

func (w *xmlWriter) Write(results []scanengine.ScanResult) error {
	doc := xmlScan{Results: make([]xmlResult, 0, len(results))}
	for _, r := range results {
		xr := xmlResult{
			Address:     r.Address.String(),
			Target:      r.Target,
			RefID:       r.RefID,
			DaemonGuess: r.DaemonGuess,
			Monlist:     r.Monlist,
			Variables:   r.Variables,
			RateKoD:     r.RateKoD,
			Versions:    make([]xmlResultVersion, 0, len(r.Versions)),
		}
		for _, v := range probedVersions {
			if mode, ok := r.Versions[v]; ok {
				xr.Versions = append(xr.Versions, xmlResultVersion{Number: int(v), Mode: int(mode)})
			}
		}
		doc.Results = append(doc.Results, xr)
	}

	enc := xml.NewEncoder(w.out)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding xml scan results")
	}
	return nil
}
