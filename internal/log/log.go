// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package log wires up the package-level loggers used across the mempool
// engine. It is the only place this module touches a concrete logging
// backend; every other package only ever calls a btclog.Logger it was
// handed through UseLogger.
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/CjMapope/wmcc-core/mempool"
	"github.com/CjMapope/wmcc-core/mempool/cache"
	"github.com/CjMapope/wmcc-core/mempool/feeestimator"
	"github.com/CjMapope/wmcc-core/mempool/index"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all
// subsystem loggers created from it write to the backend. Loggers must not
// be used before InitLogRotator has been called with a log file, or writes
// simply fall back to stdout only.
var (
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator is the rotating-file output. It should be closed on
	// application shutdown.
	LogRotator *rotator.Rotator

	TxmpLog  = backendLog.Logger("TXMP")
	CacheLog = backendLog.Logger("CTXC")
	FeesLog  = backendLog.Logger("FEES")
	IndxLog  = backendLog.Logger("INDX")
)

func init() {
	mempool.UseLogger(TxmpLog)
	cache.UseLogger(CacheLog)
	feeestimator.UseLogger(FeesLog)
	index.UseLogger(IndxLog)
}

// SubsystemLoggers maps each subsystem identifier to its associated logger.
var SubsystemLoggers = map[string]btclog.Logger{
	"TXMP": TxmpLog,
	"CTXC": CacheLog,
	"FEES": FeesLog,
	"INDX": IndxLog,
}

// InitLogRotator initializes the logging rotator to write logs to logFile,
// creating roll files in the same directory. It must be called before the
// package-global loggers are used if file output is desired.
func InitLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	LogRotator = r
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := SubsystemLoggers[subsystemID]
	if !ok {
		return
	}

	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for every subsystem logger.
func SetLogLevels(logLevel string) {
	for subsystemID := range SubsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// PickNoun returns the singular or plural form of a noun depending on n.
func PickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
