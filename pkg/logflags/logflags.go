// Package logflags configures the loggers used by the various layers of
// the debugger engine. Logging is off by default; it is enabled per
// layer through the --log-output flag.
package logflags

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var frame = false
var metadata = false
var dap = false
var repl = false

var logOut io.WriteCloser

func makeLogger(flag bool, fields logrus.Fields) Logger {
	lf := loggerFactory
	if lf == nil {
		lf = newLogrusLogger
	}
	return lf(flag, fields, logOut)
}

// Frame returns true if the frame layer should log.
func Frame() bool {
	return frame
}

// FrameLogger returns a logger for the frame abstraction layer.
func FrameLogger() Logger {
	return makeLogger(frame, logrus.Fields{"layer": "frame"})
}

// Metadata returns true if the metadata service should log.
func Metadata() bool {
	return metadata
}

// MetadataLogger returns a logger for the metadata service.
func MetadataLogger() Logger {
	return makeLogger(metadata, logrus.Fields{"layer": "metadata"})
}

// DAP returns true if the DAP conversion layer should log.
func DAP() bool {
	return dap
}

// DAPLogger returns a logger for the DAP conversion layer.
func DAPLogger() Logger {
	return makeLogger(dap, logrus.Fields{"layer": "dap"})
}

// REPL returns true if the frame inspector REPL should log.
func REPL() bool {
	return repl
}

// REPLLogger returns a logger for the frame inspector REPL.
func REPLLogger() Logger {
	return makeLogger(repl, logrus.Fields{"layer": "repl"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets the layer flags based on the contents of logstr.
func Setup(logFlag bool, logstr, dest string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if dest != "" {
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		logOut = f
		log.SetOutput(f)
	}
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "frame"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "frame":
			frame = true
		case "metadata":
			metadata = true
		case "dap":
			dap = true
		case "repl":
			repl = true
		default:
			return errors.New("unknown log output value " + logcmd)
		}
	}
	return nil
}

// Close closes the logger output destination, if one was set up.
func Close() {
	if logOut != nil {
		logOut.Close()
	}
}
