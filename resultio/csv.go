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
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ntpscan/ntpfp/scanengine"
)

var csvHeader = []string{
	"address", "refid",
	"v0", "v1", "v2", "v3", "v4", "v5", "v6", "v7",
	"monlist", "variables",
}

type csvWriter struct {
	out io.Writer
}

func (w *csvWriter) Write(results []scanengine.ScanResult) error {
	cw := csv.NewWriter(w.out)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, r := range results {
		row := make([]string, 0, len(csvHeader))
		row = append(row, r.Address.String(), r.RefID)
		for _, v := range probedVersions {
			if mode, ok := r.Versions[v]; ok {
				row = append(row, strconv.Itoa(int(mode)))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, strconv.FormatBool(r.Monlist), strconv.FormatBool(r.Variables))
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing csv row for %s", r.Address)
		}
	}
	return cw.Error()
}
