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

package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ntpscan/ntpfp/resultio"
	"github.com/ntpscan/ntpfp/scanengine"
	"github.com/ntpscan/ntpfp/targetlist"
)

var opts struct {
	iplist           string
	threads          int
	targetsPerThread int
	retries          int
	pollMs           int
	spreadSeconds    int
	identify         bool
	outputFile       string
	outputFormat     string
	metricsPort      int
	verbosity        int
}

// RootCmd is the ntpfp entry point.
var RootCmd = &cobra.Command{
	Use:   "ntpfp [TARGETS...]",
	Short: "Active NTP fingerprinting scanner",
	Long:  "ntpfp probes NTP servers over UDP/123 with modes 3/4, 6, and 7 to fingerprint the daemon behind them.",
	RunE:  runScan,
}

func init() {
	flags := RootCmd.Flags()
	flags.StringVar(&opts.iplist, "iplist", "", "newline-delimited host list (mutually exclusive with positional targets)")
	flags.IntVarP(&opts.threads, "threads", "t", 2, "number of worker shards")
	flags.IntVar(&opts.targetsPerThread, "targets-per-thread", 1000, "concurrent targets per worker (K)")
	flags.IntVarP(&opts.retries, "retries", "r", 1, "max retries per sub-scan probe")
	flags.IntVarP(&opts.pollMs, "poll", "p", 1000, "poll timeout in milliseconds")
	flags.IntVar(&opts.spreadSeconds, "spread", 0, "inter-packet pacing interval in seconds, unconditionally enabled when non-zero")
	flags.BoolVar(&opts.identify, "identify", true, "probe versions 0-7 to fingerprint the daemon (--identify=false disables)")
	flags.StringVarP(&opts.outputFile, "output-file", "o", "", "output file path, default stdout")
	flags.StringVarP(&opts.outputFormat, "output-format", "f", "plain", "output format: plain, csv, or xml")
	flags.IntVar(&opts.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port, 0 disables")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity, repeatable")
}

// ConfigureVerbosity maps -v's repeat count onto a logrus level: 0=Warn,
// 1=Info, 2=Debug, 3 or more=Trace.
func ConfigureVerbosity() {
	switch {
	case opts.verbosity >= 3:
		log.SetLevel(log.TraceLevel)
	case opts.verbosity == 2:
		log.SetLevel(log.DebugLevel)
	case opts.verbosity == 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

// Execute is the CLI entry point invoked from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ConfigureVerbosity()

	if opts.iplist != "" && len(args) > 0 {
		return fmt.Errorf("--iplist and positional targets are mutually exclusive")
	}

	hosts := args
	if opts.iplist != "" {
		fileHosts, err := targetlist.ReadFile(opts.iplist)
		if err != nil {
			return err
		}
		hosts = fileHosts
	}
	if len(hosts) == 0 {
		return fmt.Errorf("no targets given: pass --iplist or positional TARGETS")
	}

	targets, err := targetlist.Resolve(hosts)
	if err != nil {
		return err
	}
	log.WithField("count", len(targets)).Info("resolved targets")

	out := os.Stdout
	if opts.outputFile != "" {
		f, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("opening output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	writer, err := resultio.New(opts.outputFormat, out)
	if err != nil {
		return err
	}

	var metrics *scanengine.Metrics
	if opts.metricsPort > 0 {
		registry := prometheus.NewRegistry()
		metrics = scanengine.NewMetrics(registry)
		go serveMetrics(registry, opts.metricsPort)
	}

	results := runWorkers(targets, metrics)

	if err := writer.Write(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

func serveMetrics(registry *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.WithField("port", port).Info("serving metrics")
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.WithError(err).Error("metrics server stopped")
	}
}
