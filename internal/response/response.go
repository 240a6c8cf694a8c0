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

// Package response builds outgoing HTTP/1.1 responses: a status, a
// case-preserving, insertion-ordered header set, and a body, serialized to
// the exact bytes that go on the wire.
package response

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rfc7231DateFormat matches RFC 7231 §7.1.1.1's fixed GMT zone name.
// time.RFC1123 would render UTC()'s zone as "UTC" instead.
const rfc7231DateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

type headerEntry struct {
	Name  string
	Value string
}

// Response is a mutable response under construction.
type Response struct {
	Status  int
	headers []headerEntry
	Body    []byte
}

// New creates a response with the given status and no headers or body.
func New(status int) *Response {
	return &Response{Status: status}
}

// SetHeader appends or replaces a header, preserving first-set insertion
// order on replacement.
func (r *Response) SetHeader(name, value string) {
	for i := range r.headers {
		if strings.EqualFold(r.headers[i].Name, name) {
			r.headers[i].Value = value
			return
		}
	}
	r.headers = append(r.headers, headerEntry{Name: name, Value: value})
}

// Header returns a previously set header's value, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// SetContentType is shorthand for SetHeader("Content-Type", ct).
func (r *Response) SetContentType(ct string) { r.SetHeader("Content-Type", ct) }

// SetBody replaces the response body.
func (r *Response) SetBody(b []byte) { r.Body = b }

// SetCookie appends a Set-Cookie header in its simplest form.
func (r *Response) SetCookie(name, value string) {
	r.headers = append(r.headers, headerEntry{Name: "Set-Cookie", Value: name + "=" + value + "; Path=/"})
}

var statusText = map[int]string{
	200: "OK", 201: "Created", 204: "No Content",
	301: "Moved Permanently", 302: "Found",
	400: "Bad Request", 403: "Forbidden", 404: "Not Found",
	405: "Method Not Allowed", 413: "Payload Too Large",
	414: "URI Too Long", 431: "Request Header Fields Too Large",
	500: "Internal Server Error", 501: "Not Implemented",
	502: "Bad Gateway", 504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// StatusText returns the reason phrase for code, or "Unknown" if not one
// of the statuses this server emits.
func StatusText(code int) string {
	if t, ok := statusText[code]; ok {
		return t
	}
	return "Unknown"
}

// Serialize renders the full response as wire bytes for the given request
// version, method (HEAD suppresses the body), keep-alive decision, and
// server identification string.
func (r *Response) Serialize(version, method string, keepAlive bool, serverName string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %d %s\r\n", version, r.Status, StatusText(r.Status))

	if _, ok := r.Header("Date"); !ok {
		fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(rfc7231DateFormat))
	}
	if _, ok := r.Header("Server"); !ok {
		fmt.Fprintf(&b, "Server: %s\r\n", serverName)
	}

	connVal := "close"
	if keepAlive {
		connVal = "keep-alive"
	}
	if _, ok := r.Header("Connection"); !ok {
		fmt.Fprintf(&b, "Connection: %s\r\n", connVal)
	}

	if _, ok := r.Header("Content-Length"); !ok {
		fmt.Fprintf(&b, "Content-Length: %s\r\n", strconv.Itoa(len(r.Body)))
	}

	for _, h := range r.headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h.Name, h.Value)
	}

	b.WriteString("\r\n")

	out := []byte(b.String())
	if method != "HEAD" {
		out = append(out, r.Body...)
	}
	return out
}
