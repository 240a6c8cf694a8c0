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

package request

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// HeaderCap is the maximum number of unconsumed bytes tolerated while
// searching for the end of the header block before giving up with 431.
const HeaderCap = 8 * 1024

// ParseError carries the HTTP status the connection should respond with
// when the wire bytes cannot be turned into a Request.
type ParseError struct {
	Status  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// ErrIncomplete is returned (never wrapped) when buf does not yet contain a
// full header block; the caller should wait for more bytes unless the
// buffer has already exceeded HeaderCap.
var ErrIncomplete = &ParseError{Status: 0, Message: "incomplete header block"}

// ParseHeaders scans buf for the request-line and header block terminated
// by a blank line. It returns the parsed Request and the index of the
// first byte after the terminating CRLFCRLF (where the body, if any,
// begins). If the terminator is not present, it returns ErrIncomplete.
func ParseHeaders(buf []byte) (*Request, int, error) {
	end := bytes.Index(buf, []byte("\r\n\r\n"))
	if end == -1 {
		if len(buf) > HeaderCap {
			return nil, 0, &ParseError{Status: 431, Message: "request header fields too large"}
		}
		return nil, 0, ErrIncomplete
	}

	bodyStart := end + 4
	head := buf[:end]

	lines := strings.Split(string(head), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, 0, &ParseError{Status: 400, Message: "empty request line"}
	}

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, 0, err
	}

	req.Headers = Header{}
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx == -1 {
			continue // malformed header line without a colon: silently skipped per spec
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		req.Headers.set(name, value)
	}

	if cl, ok := req.Headers.Get("content-length"); ok {
		n, convErr := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if convErr != nil || n < 0 {
			return nil, 0, &ParseError{Status: 400, Message: "invalid Content-Length"}
		}
		req.ContentLength = n
	}

	if te, ok := req.Headers.Get("transfer-encoding"); ok {
		req.Chunked = strings.Contains(strings.ToLower(te), "chunked")
	}

	if len(req.Target) > 8192 {
		return nil, 0, &ParseError{Status: 414, Message: "request target too long"}
	}

	return req, bodyStart, nil
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, &ParseError{Status: 400, Message: "malformed request line"}
	}

	method := strings.ToUpper(parts[0])
	target := parts[1]
	version := parts[2]

	if version != "HTTP/1.0" && version != "HTTP/1.1" {
		return nil, &ParseError{Status: 505, Message: "unsupported HTTP version: " + version}
	}

	if target == "" || target[0] != '/' {
		return nil, &ParseError{Status: 400, Message: "request target must be an absolute path"}
	}

	path, query := target, ""
	if idx := strings.IndexByte(target, '?'); idx != -1 {
		path, query = target[:idx], target[idx+1:]
	}

	return &Request{
		Method:   method,
		Target:   target,
		Path:     path,
		RawQuery: query,
		Version:  version,
	}, nil
}

// ExtractContentLengthBody returns the zero-copy body view once buf holds
// at least bodyStart+n bytes, or ok=false if more data must arrive first.
func ExtractContentLengthBody(buf []byte, bodyStart int, n int64) (body []byte, ok bool) {
	end := bodyStart + int(n)
	if end > len(buf) {
		return nil, false
	}
	return buf[bodyStart:end], true
}
