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
Package resultio renders scanengine.ScanResult rows to plain, CSV, or
XML output, the way cmd/ziffy/node and cmd/ntpcheck/cmd render theirs.
*/
package resultio

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ntpscan/ntpfp/scanengine"
)

// Writer renders one batch of finished results.
type Writer interface {
	Write(results []scanengine.ScanResult) error
}

// New builds the Writer for the requested --output-format value.
func New(format string, out io.Writer) (Writer, error) {
	switch format {
	case "", "plain":
		return &plainWriter{out: out}, nil
	case "csv":
		return &csvWriter{out: out}, nil
	case "xml":
		return &xmlWriter{out: out}, nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

// probedVersions is the fixed set of versions the Identify sub-scan
// tries, in display order, used by every writer's per-version columns.
var probedVersions = [...]uint8{0, 1, 2, 3, 4, 5, 6, 7}
