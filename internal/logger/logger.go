// Package logger builds the process-wide logrus logger.  Development runs
// get a human-readable text formatter; every other environment logs JSON so
// that entries can be shipped and indexed.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger configured for env at the given level.  Unknown level
// names fall back to info.
func New(env, level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, env, level)
}

// NewWithOutput is New with an explicit destination.
func NewWithOutput(out io.Writer, env, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	if env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
