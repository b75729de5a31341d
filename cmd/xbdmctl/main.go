// Command xbdmctl is a small command-line front end over the xbdm client
// library, exercising connect/execute/discover/resolve from the shell.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rjboer/xbdm"
	"github.com/rjboer/xbdm/internal/logging"
)

var (
	logLevel  = flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat = flag.String("log-format", "text", "log format: text, json")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logger, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "xbdmctl: %v\n", err)
		os.Exit(2)
	}

	switch args[0] {
	case "discover":
		err = runDiscover(logger)
	case "resolve":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = runResolve(logger, args[1])
	case "exec":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		err = runExec(logger, args[1], args[2])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "xbdmctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: xbdmctl [-log-level level] [-log-format format] discover | resolve <host> | exec <addr> <command>")
}

func buildLogger() (logging.Logger, error) {
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(*logFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format, os.Stderr), nil
}

func runDiscover(logger logging.Logger) error {
	logger.Info("broadcasting discovery probe")
	it, err := xbdm.Discover(xbdm.WithDiscoverLogger(logger))
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}
	defer it.Close()

	count := 0
	for {
		x, ok := it.Next()
		if !ok {
			break
		}
		count++
		kind := "classic"
		if x.Is360() {
			kind = "360"
		}
		fmt.Printf("%-15s %-6d %-8s %s\n", x.IP, x.Port, kind, x.Name)
	}
	logger.Debug("discovery finished", logging.Field{Key: "found", Value: count})
	if count == 0 {
		fmt.Println("no devices found")
	}
	return nil
}

func runResolve(logger logging.Logger, host string) error {
	x, err := xbdm.Resolve(host, xbdm.WithDiscoverLogger(logger))
	if err != nil {
		return fmt.Errorf("resolve %q: %w", host, err)
	}
	if x == nil {
		fmt.Printf("%s: not found\n", host)
		return nil
	}
	fmt.Printf("%s -> %s:%d (%s)\n", host, x.IP, x.Port, x.Name)
	return nil
}

func runExec(logger logging.Logger, addr, command string) error {
	s, err := xbdm.Connect(addr, xbdm.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	defer s.Close()

	h, err := s.Execute(xbdm.StatusCodes{
		xbdm.StatusOK,
		xbdm.StatusMultilineResponseFollows,
	}, command)
	if err != nil {
		return fmt.Errorf("execute %q: %w", command, err)
	}

	if h.Code() == xbdm.StatusMultilineResponseFollows {
		if _, err := io.Copy(os.Stdout, h); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
	}

	code, message, err := h.Finish()
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	fmt.Printf("%s- %s\n", code, message)

	snap := s.Snapshot()
	logger.Debug("command finished", logging.Command(command), logging.Field{Key: "bytesSent", Value: snap.BytesSent}, logging.Field{Key: "bytesReceived", Value: snap.BytesReceived})
	return nil
}
