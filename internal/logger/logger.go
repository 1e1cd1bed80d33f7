package logger

import (
	"io"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

var rotator io.Writer

// Setup initializes Logrus logging via a rotating file.
func Setup(file, level string) error {
	// 1) Lumberjack for file rotation
	rotator = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 7,  // keep up to 7 old files
		MaxAge:     7,  // days
		Compress:   true,
	}

	// 2) Configure Logrus to write to that file
	logrus.SetOutput(rotator)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	return nil
}

// Writer is the rotating log file, shared with the HTTP access log. Before
// Setup it falls back to the Logrus output.
func Writer() io.Writer {
	if rotator == nil {
		return logrus.StandardLogger().Out
	}
	return rotator
}

// Gorm returns a GORM logger that prints through Logrus. SQL statements are
// logged at debug level, slow queries and errors at warn.
func Gorm() gormlogger.Interface {
	lvl := gormlogger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		lvl = gormlogger.Info
	}
	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
