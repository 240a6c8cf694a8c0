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

// Package request implements the byte-accurate HTTP/1.1 wire parser: the
// request-line and header grammar, Content-Length framing, and chunked
// transfer-decoding. A Content-Length body is handed back as a slice of the
// connection's own read buffer (a Go slice is already a zero-copy view);
// a chunked body is decoded into a freshly allocated buffer, since the
// chunk framing bytes are interleaved with the payload and must be removed.
package request

import "strings"

// Header is a case-insensitive header map; keys are stored lowercased.
type Header map[string]string

func (h Header) set(name, value string) { h[strings.ToLower(name)] = value }

// Get returns the header's value, case-insensitively, and whether it exists.
func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Request is one parsed HTTP/1.1 exchange's request half.
type Request struct {
	Method   string
	Target   string
	Path     string
	RawQuery string
	Version  string
	Headers  Header

	ContentLength int64
	Chunked       bool

	// Body is either a slice of the connection's read buffer (zero-copy,
	// BodyOwned false) or a freshly decoded chunked payload (BodyOwned
	// true). Callers must not retain Body past a keep-alive reset when
	// BodyOwned is false.
	Body      []byte
	BodyOwned bool
}

// HasBody reports whether the request declared any body framing at all.
func (r *Request) HasBody() bool {
	return r.Chunked || r.ContentLength > 0
}

// KeepAlive applies §4.3's policy given the response status that will be
// sent: HTTP/1.1 keeps the connection open unless the client asked to
// close it or the status forces a hard close; HTTP/1.0 closes unless the
// client explicitly asked to keep it alive.
func (r *Request) KeepAlive(status int) bool {
	if status == 400 || status == 405 || status >= 500 {
		return false
	}

	conn, _ := r.Headers.Get("connection")
	conn = strings.ToLower(strings.TrimSpace(conn))

	if r.Version == "HTTP/1.0" {
		return conn == "keep-alive"
	}
	return conn != "close"
}
