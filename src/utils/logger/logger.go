package logger

import (
	"os"

	"github.com/lms-ally/syncer/src/utils/config"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
}

func Init(config *config.Config) (err error) {
	level, err := logrus.ParseLevel(config.LogLevel)
	if err != nil {
		return
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stdout)

	if config.IsDevelopment {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return nil
}

// NewSublogger tags every entry with the name of the component that logs it
func NewSublogger(tag string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"module": "ally." + tag})
}

// L exposes the root logger, e.g. for the gin and gorm bridges
func L() *logrus.Logger {
	return logger
}
