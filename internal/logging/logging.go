// Package logging builds the application logger from configuration.
package logging

import (
	"github.com/sirupsen/logrus"
)

// New returns a logger configured with the given level and format.
// Unknown values fall back to info/text rather than failing; a bad logging
// knob should never stop a reconstruction.
func New(level, format string) *logrus.Logger {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
