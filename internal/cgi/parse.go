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

package cgi

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/nabbar/webserv/internal/response"
)

// parseOutput splits a CGI child's stdout into headers and body at the
// first blank line, recognizing Status and Content-Type specially and
// passing every other header through verbatim.
func parseOutput(out []byte) *response.Response {
	sep := []byte("\r\n\r\n")
	idx := bytes.Index(out, sep)
	sepLen := 4
	if idx < 0 {
		sep = []byte("\n\n")
		idx = bytes.Index(out, sep)
		sepLen = 2
	}

	if idx < 0 {
		r := response.New(200)
		r.SetContentType("text/html; charset=utf-8")
		r.SetBody(out)
		return r
	}

	head := string(out[:idx])
	body := out[idx+sepLen:]

	status := 200
	contentType := "text/html; charset=utf-8"
	r := response.New(status)

	for _, line := range strings.Split(strings.ReplaceAll(head, "\r\n", "\n"), "\n") {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		switch strings.ToLower(name) {
		case "status":
			if code, ok := parseStatusLine(value); ok {
				status = code
			}
		case "content-type":
			contentType = value
		default:
			r.SetHeader(name, value)
		}
	}

	r.Status = status
	r.SetContentType(contentType)
	r.SetBody(body)
	return r
}

func parseStatusLine(value string) (int, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return code, true
}
