package observability

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the standard logrus logger used across the module.
func SetupLogger(level string, json bool) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(lvl)
	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
