// Command minihttps sends HTTP/1.1 requests over TLS.
package main

import (
	"os"

	"github.com/apex/log"
	"github.com/ooni/minihttps/internal/httpsclient"
	"github.com/ooni/minihttps/internal/logx"
	"github.com/spf13/cobra"
)

func main() {
	log.Log = &log.Logger{Level: log.InfoLevel, Handler: logx.NewHandler(os.Stderr)}
	if err := newRootCommand(&options{}).Execute(); err != nil {
		log.WithError(err).Errorf("minihttps: %s failure", httpsclient.Classify(err))
		os.Exit(1)
	}
}

// newRootCommand returns the root command using the given options.
func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "minihttps",
		Short:         "Minimal HTTPS client",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				if logger, ok := log.Log.(*log.Logger); ok {
					logger.Level = log.DebugLevel
				}
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.caFile, "ca-file", "", "PEM file containing the root CAs to trust")
	flags.StringVar(&opts.configFile, "config", "", "JSON-with-comments configuration file")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "extra header as \"Name: Value\" (repeatable)")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write prometheus metrics to this file at exit")
	flags.StringVar(&opts.parrot, "parrot", "", "ClientHello to parrot (chrome or firefox)")
	flags.BoolVar(&opts.raw, "raw", false, "print the raw response bytes")
	flags.IntVar(&opts.repeat, "repeat", 1, "send the request N times over a single connection")
	flags.StringVar(&opts.resolver, "resolver", "", "resolver URL (e.g., udp://8.8.8.8:53)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "connect, handshake and read timeout")
	flags.StringVar(&opts.tlsVersion, "tls-version", "", "TLS version to use (TLSv1.2 or TLSv1.3)")
	flags.StringVarP(&opts.userAgent, "user-agent", "A", "", "User-Agent header value")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "emit debug messages")

	root.AddCommand(getSubcommand(opts))
	root.AddCommand(postSubcommand(opts))
	return root
}
