// Command protoserv runs a protoserv server process, wiring a
// dispatch.Module's protocol through the server facade. This binary
// wires the echo example module; embedding applications are expected to
// build their own main using package server directly, the way cobra's
// own root-command pattern lets a CLI compose subcommands (grounded on
// vango-go-vango/cmd/vango/main.go).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aautushka/protoserv/config"
	"github.com/aautushka/protoserv/dispatch"
	"github.com/aautushka/protoserv/examples/echo"
	"github.com/aautushka/protoserv/metrics"
	"github.com/aautushka/protoserv/protolog"
	"github.com/aautushka/protoserv/server"

	"net/http"
)

func main() {
	var (
		ip         string
		port       uint16
		metricsAddr string
	)

	root := &cobra.Command{
		Use:           "protoserv",
		Short:         "Length-prefixed, type-tagged TCP server framework",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ip, port, metricsAddr)
		},
	}
	root.Flags().StringVar(&ip, "ip", config.DefaultIP, "bind address")
	root.Flags().Uint16Var(&port, "port", 4999, "listen port")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "protoserv: %v\n", err)
		os.Exit(1)
	}
}

func run(ip string, port uint16, metricsAddr string) error {
	logger := protolog.NewDefault(slog.LevelInfo)

	proto := echo.Protocol()
	table := dispatch.NewTable(proto, logger)
	echo.Register(table)

	module := &echo.Module{}
	events := dispatch.NewLifecycleFanout(nil)

	var m *metrics.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg, "protoserv")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	cfg := server.DefaultConfig()
	var opts []server.Option
	opts = append(opts, server.WithLogger(logger), server.WithStdin(os.Stdin, "commands: exit, help"))
	if m != nil {
		opts = append(opts, server.WithMetrics(m))
	}

	s := server.NewServer(proto, module, table, events, cfg, opts...)
	if err := s.Configure(config.Options{"Ip": ip, "Port": fmt.Sprint(port)}); err != nil {
		return err
	}
	return s.Run()
}
