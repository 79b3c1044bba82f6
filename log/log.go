// Package log is a small leveled logger over logrus, writing coloured level
// tags to stderr when stderr is a terminal.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

type Level uint32

const (
	// LevelOff maps onto logrus' panic level, which nothing here logs at.
	LevelOff   = Level(logrus.PanicLevel)
	LevelError = Level(logrus.ErrorLevel)
	LevelWarn  = Level(logrus.WarnLevel)
	LevelInfo  = Level(logrus.InfoLevel)
	LevelDebug = Level(logrus.DebugLevel)
)

var ErrUnknownLevel = errors.New("unknown log level")

func (l Level) String() string {
	if l == LevelOff {
		return "off"
	}
	return logrus.Level(l).String()
}

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "":
		return LevelInfo, nil
	case "off", "none":
		return LevelOff, nil
	}

	level, err := logrus.ParseLevel(s)
	if err != nil || level < logrus.ErrorLevel {
		return LevelOff, errors.Wrapf(ErrUnknownLevel, "%q", s)
	}
	if level > logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	return Level(level), nil
}

type Logger struct {
	logger *logrus.Logger
}

func New(w io.Writer, colored bool) *Logger {
	var p = &Logger{logger: logrus.New()}
	p.logger.SetLevel(logrus.InfoLevel)
	p.SetOutput(w, colored)
	return p
}

func (p *Logger) SetOutput(w io.Writer, colored bool) {
	p.logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     colored,
		DisableColors:   !colored,
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})
	p.logger.SetOutput(w)
}

func (p *Logger) SetLevel(level Level) { p.logger.SetLevel(logrus.Level(level)) }

// Enabled reads the level atomically; use it to skip building debug
// arguments on hot paths.
func (p *Logger) Enabled(level Level) bool {
	return level != LevelOff && p.logger.IsLevelEnabled(logrus.Level(level))
}

func (p *Logger) Debug(args ...interface{}) { p.logger.Debugln(args...) }
func (p *Logger) Info(args ...interface{}) { p.logger.Infoln(args...) }
func (p *Logger) Warn(args ...interface{}) { p.logger.Warnln(args...) }
func (p *Logger) Error(args ...interface{}) { p.logger.Errorln(args...) }

var std = New(colorable.NewColorableStderr(), isTerminal(os.Stderr))

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput replaces the package logger's writer. Colouring is kept only if
// w is a terminal.
func SetOutput(w io.Writer) {
	var colored bool
	if f, ok := w.(*os.File); ok {
		colored = isTerminal(f)
		w = colorable.NewColorable(f)
	}
	std.SetOutput(w, colored)
}

func SetLevel(level Level) { std.SetLevel(level) }

func Enabled(level Level) bool { return std.Enabled(level) }

func Debug(args ...interface{}) { std.Debug(args...) }
func Info(args ...interface{}) { std.Info(args...) }
func Warn(args ...interface{}) { std.Warn(args...) }
func Error(args ...interface{}) { std.Error(args...) }
