package logging

import (
	"github.com/sirupsen/logrus"
)

// New builds the application logger. Production gets JSON lines at info,
// everything else gets human-readable text at debug.
func New(env string) *logrus.Logger {
	l := logrus.New()
	if env == "prod" {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetFormatter(&logrus.TextFormatter{})
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
