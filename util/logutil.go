package util

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures logrus based on LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error
func InitLogger() {
	logrus.SetOutput(os.Stderr)
	if logLevel, ok := os.LookupEnv("LOG_LEVEL"); ok {
		var level logrus.Level

		switch strings.ToLower(logLevel) {
		case "debug":
			level = logrus.DebugLevel
		case "info":
			level = logrus.InfoLevel
		case "warn":
			level = logrus.WarnLevel
		case "error":
			level = logrus.ErrorLevel
		default:
			level = logrus.InfoLevel
		}

		logrus.SetLevel(level)
	}
}
