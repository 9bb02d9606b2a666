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
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ntpscan/ntpfp/scanengine"
)

const maxColWidth = 100

type plainWriter struct {
	out io.Writer
}

func (w *plainWriter) Write(results []scanengine.ScanResult) error {
	table := tablewriter.NewWriter(w.out)
	table.SetColWidth(maxColWidth)
	table.SetHeader([]string{"address", "refid", "versions", "monlist", "variables", "daemon_guess"})

	for _, r := range results {
		table.Append([]string{
			r.Address.String(),
			colorize(r.RefID != "", r.RefID, "-"),
			strings.Join(versionsCell(r.Versions), ","),
			colorizeBool(r.Monlist),
			colorizeBool(r.Variables),
			daemonGuessCell(r.DaemonGuess),
		})
	}
	table.Render()
	return nil
}

func versionsCell(versions map[uint8]uint8) []string {
	probed := make([]uint8, 0, len(versions))
	for v := range versions {
		probed = append(probed, v)
	}
	sort.Slice(probed, func(i, j int) bool { return probed[i] < probed[j] })

	out := make([]string, 0, len(probed))
	for _, v := range probed {
		out = append(out, strconv.Itoa(int(v))+"="+strconv.Itoa(int(versions[v])))
	}
	return out
}

func daemonGuessCell(guess string) string {
	switch guess {
	case "":
		return "-"
	case "offline":
		return color.YellowString("offline")
	default:
		return color.GreenString(guess)
	}
}

func colorize(good bool, value, fallback string) string {
	if !good {
		return fallback
	}
	return color.GreenString(value)
}

func colorizeBool(good bool) string {
	if good {
		return color.GreenString("yes")
	}
	return color.YellowString("no")
}
