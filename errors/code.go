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

package errors

import "strconv"

// CodeError is a numeric error classification, analogous to an HTTP status
// code but scoped to this process's own startup and request-handling
// failures rather than the status sent to the client.
type CodeError uint16

func (c CodeError) Uint16() uint16 { return uint16(c) }
func (c CodeError) String() string { return strconv.Itoa(int(c)) }

// Error builds a new Error carrying this code and message, optionally
// wrapping a parent error.
func (c CodeError) Error(parent error) Error {
	e := &ers{c: c, m: c.defaultMessage()}
	if parent != nil {
		e.ErrorParent(parent)
	}
	return e
}

// ErrorParent is a convenience for CodeError.Error(nil).ErrorParent(parent).
func (c CodeError) ErrorParent(parent error) Error {
	return c.Error(parent)
}

func (c CodeError) defaultMessage() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return "unknown error"
}

const (
	UnknownError CodeError = iota

	// configuration
	ErrorConfigOpen
	ErrorConfigParse
	ErrorConfigValidate

	// startup / listeners
	ErrorBindFailure
	ErrorListenFailure
	ErrorPortInUse

	// routing / request handling
	ErrorRoutingNoServer
	ErrorHandlerInternal
	ErrorFileSystem

	// CGI gateway
	ErrorCGISpawn
	ErrorCGITimeout
	ErrorCGIBadOutput
)

var codeMessage = map[CodeError]string{
	UnknownError:         "unknown error",
	ErrorConfigOpen:      "cannot open configuration file",
	ErrorConfigParse:     "configuration parse error",
	ErrorConfigValidate:  "configuration validation error",
	ErrorBindFailure:     "socket bind failure",
	ErrorListenFailure:   "socket listen failure",
	ErrorPortInUse:       "port already in use",
	ErrorRoutingNoServer: "no server matched the request",
	ErrorHandlerInternal: "internal handler failure",
	ErrorFileSystem:      "filesystem operation failed",
	ErrorCGISpawn:        "failed to spawn CGI process",
	ErrorCGITimeout:      "CGI process timed out",
	ErrorCGIBadOutput:    "CGI process produced invalid output",
}
