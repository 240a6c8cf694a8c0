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

package response

import "fmt"

// ErrorPageLookup resolves a status code to a custom error page path via
// the (location, server, http) chain; ok is false when no page is
// configured for that code at any level.
type ErrorPageLookup func(code int) (path string, ok bool)

// ErrorPageLoader reads a configured custom error page's bytes.
type ErrorPageLoader func(path string) ([]byte, error)

// BuildError constructs the response for a failed request: it tries a
// configured custom error page first and falls back to a minimal built-in
// HTML body on any lookup or read failure.
func BuildError(status int, lookup ErrorPageLookup, load ErrorPageLoader) *Response {
	r := New(status)

	if lookup != nil {
		if path, ok := lookup(status); ok {
			if body, err := load(path); err == nil {
				r.SetContentType("text/html")
				r.SetBody(body)
				return r
			}
		}
	}

	r.SetContentType("text/html")
	r.SetBody([]byte(fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", status, StatusText(status))))
	return r
}
