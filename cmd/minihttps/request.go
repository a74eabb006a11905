package main

//
// Subcommands sending requests
//

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/ooni/minihttps/internal/httpsclient"
	"github.com/ooni/minihttps/internal/httpwire"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// options contains the command line options.
type options struct {
	caFile          string
	configFile      string
	data            string
	headers         []string
	metricsTextfile string
	parrot          string
	raw             bool
	repeat          int
	resolver        string
	timeout         time.Duration
	tlsVersion      string
	userAgent       string
	verbose         bool

	// configHook OPTIONALLY modifies the config before use.
	configHook func(config *httpsclient.Config)

	// stdout is where we write responses. When nil, we use os.Stdout.
	stdout io.Writer
}

func getSubcommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get URL",
		Short: "Sends a GET request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), opts, httpwire.MethodGet, args[0])
		},
	}
}

func postSubcommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post URL",
		Short: "Sends a POST request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), opts, httpwire.MethodPost, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.data, "data", "", "request body as STRING or @FILE")
	return cmd
}

// runMain runs the request and then writes the metrics, if needed.
func runMain(ctx context.Context, opts *options, method httpwire.Method, URL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()
	err := run(ctx, opts, method, URL)
	if opts.metricsTextfile != "" {
		if merr := prometheus.WriteToTextfile(opts.metricsTextfile, prometheus.DefaultGatherer); merr != nil {
			log.Warnf("cannot write metrics: %s", merr.Error())
		}
	}
	return err
}

func run(ctx context.Context, opts *options, method httpwire.Method, URL string) error {
	config, err := newConfig(opts)
	if err != nil {
		return err
	}
	extra, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}
	body, err := readData(opts.data)
	if err != nil {
		return err
	}
	stdout := opts.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	if opts.repeat <= 1 {
		client := httpsclient.NewClient(config)
		data, err := client.Request(ctx, method, URL, body, extra)
		if err != nil {
			return err
		}
		return printResponse(stdout, opts.raw, method, data)
	}

	pc, err := httpsclient.NewPersistentClient(ctx, config, URL)
	if err != nil {
		return err
	}
	defer pc.Close()
	for idx := 0; idx < opts.repeat; idx++ {
		log.Debugf("request %d of %d", idx+1, opts.repeat)
		data, err := pc.Request(ctx, method, URL, body, extra)
		if err != nil {
			return errors.Wrapf(err, "request %d", idx+1)
		}
		if err := printResponse(stdout, opts.raw, method, data); err != nil {
			return err
		}
	}
	return nil
}

// newConfig creates the client config from the config file and the
// command line flags, which take precedence.
func newConfig(opts *options) (*httpsclient.Config, error) {
	fc := &httpsclient.FileConfig{}
	if opts.configFile != "" {
		var err error
		if fc, err = httpsclient.LoadConfigFile(opts.configFile); err != nil {
			return nil, errors.Wrap(err, "loading config")
		}
	}
	overrides := []struct {
		value string
		field *string
	}{
		{opts.caFile, &fc.CAFile},
		{opts.parrot, &fc.TLSEngine},
		{opts.resolver, &fc.Resolver},
		{opts.tlsVersion, &fc.TLSVersion},
		{opts.userAgent, &fc.UserAgent},
	}
	for _, entry := range overrides {
		if entry.value != "" {
			*entry.field = entry.value
		}
	}
	if opts.timeout > 0 {
		fc.ConnectTimeout = opts.timeout.String()
		fc.HandshakeTimeout = opts.timeout.String()
		fc.ReadTimeout = opts.timeout.String()
	}
	config, err := fc.NewConfig(log.Log)
	if err != nil {
		return nil, errors.Wrap(err, "creating config")
	}
	if opts.configHook != nil {
		opts.configHook(config)
	}
	return config, nil
}

// errInvalidHeaderFlag indicates that a -H value is not "Name: Value".
var errInvalidHeaderFlag = errors.New("invalid header: expected \"Name: Value\"")

func parseHeaders(values []string) (*httpwire.Header, error) {
	header := httpwire.NewHeader()
	for _, value := range values {
		name, val, found := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, errors.Wrap(errInvalidHeaderFlag, value)
		}
		header.Set(name, strings.TrimSpace(val))
	}
	return header, nil
}

func readData(data string) ([]byte, error) {
	if filename, found := strings.CutPrefix(data, "@"); found {
		body, err := os.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrap(err, "reading data")
		}
		return body, nil
	}
	return []byte(data), nil
}

// printResponse writes the response body to w, or the raw bytes when raw
// is true, and logs the status line and headers.
func printResponse(w io.Writer, raw bool, method httpwire.Method, data []byte) error {
	if raw {
		_, err := w.Write(data)
		return err
	}
	decoder := &httpwire.Decoder{Logger: log.Log}
	resp, err := decoder.ParseForMethod(method, data)
	if err != nil {
		return errors.Wrap(err, "decoding response")
	}
	fields := log.Fields{"type": "table"}
	for name, value := range resp.Header.All() {
		fields[name] = value
	}
	log.WithFields(fields).Info(fmt.Sprintf("%s %d %s", resp.Proto, resp.StatusCode, resp.Reason))
	_, err = w.Write(resp.Body)
	return err
}
