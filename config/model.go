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

// Package config parses the nginx-style block configuration into a typed,
// cascaded tree, and selects nothing by itself — routing lives in package
// router. Each context's directive slots are present-or-absent: a nil
// pointer (or nil map) means "not set in this block", which is exactly what
// the cascader needs to implement copy-down-if-absent inheritance.
package config

// Listen is one listen address for a server block. Host is empty or
// "0.0.0.0" for the wildcard address.
type Listen struct {
	Host    string
	Port    int
	Default bool
}

// Return is the payload of a `return` directive.
type Return struct {
	Code int
	URL  string
}

// ErrorPages maps a status code to the path of a custom error page body.
// Multiple error_page directives in one block merge into a single map;
// across cascading, a child's entries win over an inherited parent's.
type ErrorPages map[int]string

func (e ErrorPages) merge(parent ErrorPages) ErrorPages {
	if len(parent) == 0 {
		return e
	}
	out := make(ErrorPages, len(parent)+len(e))
	for code, path := range parent {
		out[code] = path
	}
	for code, path := range e {
		out[code] = path
	}
	return out
}

// LimitExcept restricts a location to a set of HTTP methods; any method not
// in Allowed is implicitly denied.
type LimitExcept struct {
	Allowed map[string]bool
}

func (l *LimitExcept) permits(method string) bool {
	if l == nil {
		return true
	}
	return l.Allowed[method]
}

// HttpContext is the top-level `http { ... }` block.
type HttpContext struct {
	Servers []*ServerContext

	BodySize   *int64
	Root       *string
	Index      *string
	ErrorPages ErrorPages
}

// ServerContext is one `server { ... }` block.
type ServerContext struct {
	Listens    []Listen
	ServerName *string

	BodySize   *int64
	Root       *string
	Index      *string
	Autoindex  *bool
	Return     *Return
	ErrorPages ErrorPages

	Locations []*LocationContext
}

// LocationContext is one `location <path> { ... }` block.
type LocationContext struct {
	Path string

	BodySize    *int64
	Root        *string
	Alias       *string
	Index       *string
	Autoindex   *bool
	CgiPass     *string
	Return      *Return
	ErrorPages  ErrorPages
	LimitExcept *LimitExcept
}

// IsMethodAllowed reports whether method may be served by this location.
func (l *LocationContext) IsMethodAllowed(method string) bool {
	return l.LimitExcept.permits(method)
}

// HasAlias reports whether the location sets alias; unlike root, alias
// replaces the matched location prefix instead of being prepended to it.
func (l *LocationContext) HasAlias() bool { return l.Alias != nil }
