// Command ad is the AllNet forwarding daemon: a single-process,
// single-goroutine switch that reads framed packets from N
// bidirectional pipes, classifies them, and forwards a subset to a
// subset of the other pipes at a computed priority.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/allnet-io/ad/internal/config"
	"github.com/allnet-io/ad/internal/dispatch"
	"github.com/allnet-io/ad/internal/logging"
	"github.com/allnet-io/ad/internal/pipeio"
	"github.com/allnet-io/ad/internal/social"
)

// Exit codes: 0 never (the loop does not return on success), 1 for a
// command-line error, 2 for a fatal framing error.
const (
	exitUsage  = 1
	exitFramed = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("ad", pflag.ContinueOnError)
	configPath := flags.String("config", "", "optional YAML config file")
	contactsDir := flags.String("contacts", "", "contact/key store directory")
	updateInterval := flags.Duration("update-interval", 0, "social table refresh interval")
	socialMaxBytes := flags.Int("social-max-bytes", 0, "social table snapshot byte budget")
	socialMaxChecks := flags.Int("social-max-checks", 0, "signature verification attempts per lookup")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	logJSON := flags.Bool("log-json", false, "emit line-delimited JSON logs")
	logFile := flags.String("log-file", "", "strftime pattern for a log file, expanded once at startup, instead of stderr")

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ad: reading config: %v\n", err)
		return exitUsage
	}
	if flags.Changed("contacts") {
		cfg.ContactsDir = *contactsDir
	}
	if flags.Changed("update-interval") {
		cfg.UpdateIntervalSecs = int(updateInterval.Seconds())
	}
	if flags.Changed("social-max-bytes") {
		cfg.SocialMaxBytes = *socialMaxBytes
	}
	if flags.Changed("social-max-checks") {
		cfg.SocialMaxChecks = *socialMaxChecks
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = *logJSON
	}
	if flags.Changed("log-file") {
		cfg.LogFile = *logFile
	}

	var logOut io.Writer
	if cfg.LogFile != "" {
		f, err := logging.OpenDailyLogFile(cfg.LogFile, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "ad: opening log file: %v\n", err)
			return exitUsage
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.New(logOut, cfg.LogLevel, cfg.LogJSON)

	readFDs, writeFDs, err := parsePipeArgs(flags.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ad: %v\n", err)
		fmt.Fprintf(os.Stderr, "usage: ad [flags] N p0r p0w p1r p1w ... p(N-1)r p(N-1)w\n")
		return exitUsage
	}

	ps, err := pipeio.NewPipeSet(readFDs, writeFDs)
	if err != nil {
		logger.Error("opening pipes", "err", err)
		return exitUsage
	}

	table := social.NewTable(cfg.ContactsDir, cfg.SocialMaxBytes, cfg.SocialMaxChecks)
	if cfg.ContactsDir != "" {
		if _, err := table.Update(cfg.UpdateInterval()); err != nil {
			logger.Warn("initial social table load failed, starting empty", "err", err)
		}
	}

	d := dispatch.New(table)

	return mainLoop(logger, ps, d, table, cfg)
}

// parsePipeArgs decodes the positional "N p0r p0w p1r p1w ..." command
// line into parallel slices of read and write file descriptors. N
// must be at least 3 and the argument count must match exactly.
func parsePipeArgs(args []string) (readFDs, writeFDs []int, err error) {
	if len(args) < 1 {
		return nil, nil, fmt.Errorf("missing pipe-pair count N")
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid pipe-pair count %q: %w", args[0], err)
	}
	if n < 3 {
		return nil, nil, fmt.Errorf("need at least 3 pipe pairs, got %d", n)
	}
	if len(args) != 1+2*n {
		return nil, nil, fmt.Errorf("expected %d fd arguments for %d pipe pairs, got %d", 2*n, n, len(args)-1)
	}

	readFDs = make([]int, n)
	writeFDs = make([]int, n)
	for i := 0; i < n; i++ {
		r, err := strconv.Atoi(args[1+2*i])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid read fd %q: %w", args[1+2*i], err)
		}
		w, err := strconv.Atoi(args[2+2*i])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid write fd %q: %w", args[2+2*i], err)
		}
		readFDs[i] = r
		writeFDs[i] = w
	}
	return readFDs, writeFDs, nil
}

// mainLoop blocks in ReceiveAny with no timeout, dispatches each
// message to completion, and rebuilds the social table in a helper
// goroutine whenever wall-clock time has reached the refresh
// deadline.
func mainLoop(logger *log.Logger, ps *pipeio.PipeSet, d *dispatch.Dispatcher, table *social.Table, cfg config.Config) int {
	nextRefresh := time.Now().Add(cfg.UpdateInterval())
	var rebuilding atomic.Bool

	for {
		msg := ps.ReceiveAny()
		if msg.Err != nil {
			logger.Error("fatal framing error", "pipe", msg.PipeIndex, "err", msg.Err)
			return exitFramed
		}

		result := d.Dispatch(msg.PipeIndex, msg.Payload, msg.Priority, time.Now())
		for i, ok := range dispatch.Deliver(ps, result) {
			if !ok {
				logger.Warn("send failed, pipe closed", "pipe", i, "scope", result.Scope.String())
			}
		}

		// The refresh deadline is advanced here, in the single dispatch
		// goroutine, the instant a rebuild is kicked off — not when the
		// helper goroutine finishes — so nextRefresh is only ever
		// touched by this goroutine; the helper shares only the table's
		// atomic snapshot pointer, the atomic rebuilding flag and the
		// logger.
		if cfg.ContactsDir != "" && !nextRefresh.After(time.Now()) && rebuilding.CompareAndSwap(false, true) {
			nextRefresh = time.Now().Add(cfg.UpdateInterval())
			go func() {
				defer rebuilding.Store(false)
				if _, err := table.Update(cfg.UpdateInterval()); err != nil {
					logger.Warn("social table refresh failed", "err", err)
				}
			}()
		}
	}
}
