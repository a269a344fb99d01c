package core

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "Cumulus ☁️ ",
			})
			l.SetLevel(log.InfoLevel)
			// the wrappers below add one frame to every call
			l.SetCallerOffset(1)
			singleton = &logger{l}
		})
	return singleton
}

// Logger returns the process logger. Components that want structured fields on
// every line derive their own with Logger().With(...).
func Logger() *log.Logger {
	return getLogger().Logger
}

// SetLogLevel parses one of debug, info, warn, error, fatal. Unknown levels
// leave the current level untouched and return the parse error.
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(lvl)
	return nil
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
