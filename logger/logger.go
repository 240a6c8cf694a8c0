/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/sirupsen/logrus"
)

type logger struct {
	l *logrus.Entry
}

// New builds a Logger writing to os.Stderr in text format, matching the
// teacher's default output destination for hook-less loggers.
func New(lvl Level) Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(logrus.Level(lvl))
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &logger{l: logrus.NewEntry(base)}
}

func (g *logger) SetLevel(lvl Level) { g.l.Logger.SetLevel(logrus.Level(lvl)) }
func (g *logger) GetLevel() Level    { return Level(g.l.Logger.GetLevel()) }

func (g *logger) WithField(key string, value interface{}) Logger {
	return &logger{l: g.l.WithField(key, value)}
}

func (g *logger) WithFields(fields map[string]interface{}) Logger {
	return &logger{l: g.l.WithFields(fields)}
}

func (g *logger) Debugf(format string, args ...interface{}) { g.l.Debugf(format, args...) }
func (g *logger) Infof(format string, args ...interface{})  { g.l.Infof(format, args...) }
func (g *logger) Warnf(format string, args ...interface{})  { g.l.Warnf(format, args...) }
func (g *logger) Errorf(format string, args ...interface{}) { g.l.Errorf(format, args...) }
func (g *logger) Fatalf(format string, args ...interface{}) { g.l.Fatalf(format, args...) }

func (g *logger) StdLogger(lvl Level) *stdlog.Logger {
	w := g.Writer(lvl)
	return stdlog.New(w, "", 0)
}

func (g *logger) Writer(lvl Level) io.Writer {
	return &levelWriter{l: g.l, lvl: lvl}
}

type levelWriter struct {
	l   *logrus.Entry
	lvl Level
}

func (w *levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	switch logrus.Level(w.lvl) {
	case logrus.DebugLevel:
		w.l.Debug(msg)
	case logrus.WarnLevel:
		w.l.Warn(msg)
	case logrus.ErrorLevel, logrus.FatalLevel:
		w.l.Error(msg)
	default:
		w.l.Info(msg)
	}
	return len(p), nil
}

// defaultLogger is the package-level logger used by components that do not
// carry their own, mirroring the teacher's package-level liblog helpers.
var defaultLogger = New(InfoLevel)

// Default returns the package-level logger.
func Default() Logger { return defaultLogger }

// SetDefaultLevel sets the level of the package-level logger.
func SetDefaultLevel(lvl Level) { defaultLogger.SetLevel(lvl) }
