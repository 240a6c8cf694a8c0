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

// Package logger wraps logrus with the level/field vocabulary the webserv
// core needs: a package-level default logger, per-component children, and a
// *log.Logger adapter for the handful of stdlib APIs that still want one
// (net.Listener accept-loop errors, the CGI gateway's stderr capture).
package logger

import (
	"io"
	stdlog "log"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus' level vocabulary without exposing logrus types at
// call sites outside this package.
type Level uint32

const (
	DebugLevel Level = Level(logrus.DebugLevel)
	InfoLevel  Level = Level(logrus.InfoLevel)
	WarnLevel  Level = Level(logrus.WarnLevel)
	ErrorLevel Level = Level(logrus.ErrorLevel)
	FatalLevel Level = Level(logrus.FatalLevel)
)

// Logger is the logging contract used across the webserv packages.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	// StdLogger returns a *log.Logger adapter at the given level, for
	// stdlib APIs that require one (net.Listener, exec.Cmd.Stderr capture).
	StdLogger(lvl Level) *stdlog.Logger

	// Writer returns an io.Writer that forwards each Write as one log
	// line at the given level.
	Writer(lvl Level) io.Writer
}
