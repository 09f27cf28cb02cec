// Command httpc sends one HTTP/1.1 request and prints the response.
//
//	httpc [flags] host port method path
//
// For a Unix socket pass the socket path as host and any port.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/imor/http-efi/client"
	"github.com/imor/http-efi/config"
)

type headerFlags []client.Header

func (h *headerFlags) String() string {
	parts := make([]string, len(*h))
	for i, header := range *h {
		parts[i] = header.Name + ": " + string(header.Value)
	}
	return strings.Join(parts, ", ")
}

func (h *headerFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("header %q is not in Name: value form", s)
	}

	*h = append(*h, client.Header{
		Name:  strings.TrimSpace(name),
		Value: []byte(strings.TrimSpace(value)),
	})
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("httpc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		headers    headerFlags
		configPath = fs.String("config", "", "JSON config file")
		kind       = fs.String("transport", "", "transport: tcp, unix, uring or uring2 (overrides config)")
		data       = fs.String("d", "", "request body")
		withBody   = fs.Bool("body", false, "send a body even if -d is empty")
		verbose    = fs.Bool("v", false, "log exchange details to stderr")
	)
	fs.Var(&headers, "H", "request header, Name: value (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 4 {
		fmt.Fprintln(stderr, "usage: httpc [flags] host port method path")
		return 2
	}

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Error().Err(err).Msg("loading config")
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if *kind != "" {
		cfg.Transport.Kind = *kind
	}

	host, method, path := fs.Arg(0), fs.Arg(2), fs.Arg(3)
	port, err := strconv.ParseUint(fs.Arg(1), 10, 16)
	if err != nil {
		fmt.Fprintf(stderr, "invalid port %q\n", fs.Arg(1))
		return 2
	}

	var body []byte
	if *data != "" || *withBody {
		body = []byte(*data)
	}

	c, err := client.Connect(host, uint16(port), client.WithConfig(cfg), client.WithLogger(log))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer c.Disconnect()

	resp, err := c.Request(method, path, headers, body)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer resp.Release()

	fmt.Fprintln(stdout, resp.StatusCode())
	if hdrs, ok := resp.Headers(); ok {
		for _, h := range hdrs {
			fmt.Fprintf(stdout, "%s: %s\n", h.Name, h.Value)
		}
	}
	fmt.Fprintln(stdout)
	stdout.Write(resp.Body())

	return 0
}
