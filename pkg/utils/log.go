package utils

import (
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. InitLog must be called once at startup
// before any component writes to it.
var Log = logrus.New()

func InitLog(level string, logFile string) {
	lv, err := logrus.ParseLevel(level)
	if err != nil {
		lv = logrus.InfoLevel
	}
	Log.SetLevel(lv)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if logFile == "" {
		Log.SetOutput(os.Stdout)
		return
	}
	w := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, w))
}
