// Package log wires up github.com/op/go-logging the way kryptco-kr's
// krd daemon does at process start, giving every long-running worker a
// narrow *logging.Logger instead of a package-global.
package log

import (
	"os"

	"github.com/op/go-logging"
)

// Setup configures a module-tagged logger writing leveled, formatted
// output to stderr. level is one of "debug", "info", "warn", "error".
func Setup(module string, level string) *logging.Logger {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(
		`%{time:2006-01-02T15:04:05.000Z07:00} %{level:.4s} %{module}: %{message}`,
	)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(parseLevel(level), module)

	logger := logging.MustGetLogger(module)
	logger.SetBackend(leveled)
	return logger
}

func parseLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.DEBUG
	case "warn":
		return logging.WARNING
	case "error":
		return logging.ERROR
	default:
		return logging.INFO
	}
}
