package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logDir      = "log"
	logFilename = "todo.log"
)

var Log *logrus.Logger

var logFilePath string

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetLevel(logrus.InfoLevel)
	Log.SetOutput(os.Stdout)
}

// Init sets the level from its name ("debug", "info", ...). Unknown names
// fall back to info.
func Init(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// AddFileLogger tees log output into a rotating file under workdir/log.
func AddFileLogger(workdir string) error {
	logFilePath = filepath.Join(workdir, logDir, logFilename)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return err
	}
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10,
		MaxAge:     3,
		MaxBackups: 3,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, fileLogger))
	return nil
}

func GetLogFilePath() string {
	return logFilePath
}
