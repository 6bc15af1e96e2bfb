package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// InitLogger настраивает уровень и формат логов ("json" или "text")
func InitLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("неверный уровень логирования %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch format {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json", "":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("неизвестный формат логов %q", format)
	}
	return nil
}

// Logger возвращает общий логгер приложения
func Logger() *logrus.Logger {
	return logger
}

// SetOutput перенаправляет логи, используется в тестах
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

func withCaller() *logrus.Entry {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return logrus.NewEntry(logger)
	}
	return logger.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	withCaller().Infof(format, v...)
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	withCaller().Errorf(format, v...)
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	withCaller().Debugf(format, v...)
}

// LogOperation логирует операцию с длительностью
func LogOperation(operation string, startTime time.Time, err error) {
	entry := withCaller().WithFields(logrus.Fields{
		"operation": operation,
		"duration":  time.Since(startTime).String(),
	})
	if err != nil {
		entry.WithError(err).Error("operation failed")
		return
	}
	entry.Info("operation completed")
}
