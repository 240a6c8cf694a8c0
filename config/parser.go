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

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parser is a recursive-descent reader over a flat token stream. It never
// backtracks: every parseXxx leaves the cursor right after the directive's
// terminating `;` or block's closing `}`.
type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		line := 1
		if len(p.toks) > 0 {
			line = p.toks[len(p.toks)-1].Line
		}
		return token{Value: "", Line: line}
	}
	return p.toks[p.pos]
}

func (p *parser) curVal() string { return p.cur().Value }

func (p *parser) advance() token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) is(val string) bool { return p.curVal() == val }

func (p *parser) errorf(format string, args ...interface{}) error {
	return &ConfigError{Line: p.cur().Line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(val string) error {
	if !p.is(val) {
		return p.errorf("expected '%s' but got '%s'", val, p.curVal())
	}
	p.advance()
	return nil
}

// Parse builds a typed, cascaded HttpContext from raw configuration text.
func Parse(content string) (*HttpContext, error) {
	p := &parser{toks: tokenize(content)}

	var (
		http  *HttpContext
		found bool
		err   error
	)

	for p.curVal() != "" {
		if p.is("http") {
			if found {
				return nil, p.errorf("duplicate 'http' block found in configuration file")
			}
			http, err = p.parseHttp()
			if err != nil {
				return nil, err
			}
			found = true
		} else {
			p.advance()
		}
	}

	if !found {
		return nil, &ConfigError{Line: 1, Message: "no 'http' block found in configuration file"}
	}

	Cascade(http)

	if err = validate(http); err != nil {
		return nil, err
	}

	return http, nil
}

var directiveContexts = map[string]map[string]bool{
	"listen":               {"server": true},
	"server_name":          {"server": true},
	"cgi_pass":             {"location": true},
	"limit_except":         {"location": true},
	"alias":                {"location": true},
	"client_max_body_size": {"http": true, "server": true, "location": true},
	"root":                 {"http": true, "server": true, "location": true},
	"index":                {"http": true, "server": true, "location": true},
	"error_page":           {"http": true, "server": true, "location": true},
	"return":               {"server": true, "location": true},
	"autoindex":            {"server": true, "location": true},
}

func validateContext(directive, context string, line int) error {
	allowed, known := directiveContexts[directive]
	if !known {
		return &ConfigError{Line: line, Message: fmt.Sprintf("unknown directive '%s' in %s context", directive, context)}
	}
	if !allowed[context] {
		return &ConfigError{Line: line, Message: fmt.Sprintf("'%s' directive is not allowed in %s context", directive, context)}
	}
	return nil
}

func (p *parser) parseHttp() (*HttpContext, error) {
	if err := p.expect("http"); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	h := &HttpContext{}
	seen := map[string]bool{}

	for !p.is("}") && p.curVal() != "" {
		directive := p.curVal()
		line := p.cur().Line

		switch directive {
		case "server":
			srv, err := p.parseServer()
			if err != nil {
				return nil, err
			}
			h.Servers = append(h.Servers, srv)
			continue
		case "client_max_body_size", "root", "index":
			if seen[directive] {
				return nil, &ConfigError{Line: line, Message: fmt.Sprintf("duplicate '%s' directive", directive)}
			}
			seen[directive] = true
		}

		if err := validateContext(directive, "http", line); err != nil {
			return nil, err
		}

		switch directive {
		case "client_max_body_size":
			v, err := p.parseBodySizeValue()
			if err != nil {
				return nil, err
			}
			h.BodySize = &v
		case "root":
			v, err := p.parsePathDirective("root")
			if err != nil {
				return nil, err
			}
			h.Root = &v
		case "index":
			v, err := p.parseSingleValueDirective("index")
			if err != nil {
				return nil, err
			}
			h.Index = &v
		case "error_page":
			codes, path, err := p.parseErrorPage()
			if err != nil {
				return nil, err
			}
			if h.ErrorPages == nil {
				h.ErrorPages = ErrorPages{}
			}
			for _, c := range codes {
				h.ErrorPages[c] = path
			}
		default:
			return nil, &ConfigError{Line: line, Message: fmt.Sprintf("unknown directive '%s' in http context", directive)}
		}
	}

	return h, p.expect("}")
}

func (p *parser) parseServer() (*ServerContext, error) {
	if err := p.expect("server"); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	s := &ServerContext{}
	seen := map[string]bool{}

	for !p.is("}") && p.curVal() != "" {
		directive := p.curVal()
		line := p.cur().Line

		if directive == "location" {
			loc, err := p.parseLocation()
			if err != nil {
				return nil, err
			}
			s.Locations = append(s.Locations, loc)
			continue
		}

		switch directive {
		case "listen", "server_name", "client_max_body_size", "return", "root", "autoindex", "index":
			if seen[directive] {
				return nil, &ConfigError{Line: line, Message: fmt.Sprintf("duplicate '%s' directive", directive)}
			}
			seen[directive] = true
		}

		if err := validateContext(directive, "server", line); err != nil {
			return nil, err
		}

		switch directive {
		case "listen":
			l, err := p.parseListen()
			if err != nil {
				return nil, err
			}
			s.Listens = append(s.Listens, l)
		case "server_name":
			v, err := p.parseSingleValueDirective("server_name")
			if err != nil {
				return nil, err
			}
			s.ServerName = &v
		case "client_max_body_size":
			v, err := p.parseBodySizeValue()
			if err != nil {
				return nil, err
			}
			s.BodySize = &v
		case "return":
			r, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			s.Return = r
		case "root":
			v, err := p.parsePathDirective("root")
			if err != nil {
				return nil, err
			}
			s.Root = &v
		case "autoindex":
			v, err := p.parseAutoindex()
			if err != nil {
				return nil, err
			}
			s.Autoindex = &v
		case "index":
			v, err := p.parseSingleValueDirective("index")
			if err != nil {
				return nil, err
			}
			s.Index = &v
		case "error_page":
			codes, path, err := p.parseErrorPage()
			if err != nil {
				return nil, err
			}
			if s.ErrorPages == nil {
				s.ErrorPages = ErrorPages{}
			}
			for _, c := range codes {
				s.ErrorPages[c] = path
			}
		default:
			return nil, &ConfigError{Line: line, Message: fmt.Sprintf("unknown directive '%s' in server context", directive)}
		}
	}

	if len(s.Listens) == 0 {
		s.Listens = append(s.Listens, Listen{Host: "0.0.0.0", Port: 80})
	}

	return s, p.expect("}")
}

func (p *parser) parseLocation() (*LocationContext, error) {
	if err := p.expect("location"); err != nil {
		return nil, err
	}

	path := p.curVal()
	if path == "" || path == "{" {
		return nil, p.errorf("location directive requires a path")
	}
	p.advance()

	loc := &LocationContext{Path: path}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	seen := map[string]bool{}

	for !p.is("}") && p.curVal() != "" {
		directive := p.curVal()
		line := p.cur().Line

		switch directive {
		case "limit_except", "return", "root", "alias", "autoindex", "index", "cgi_pass", "client_max_body_size":
			if seen[directive] {
				return nil, &ConfigError{Line: line, Message: fmt.Sprintf("duplicate '%s' directive", directive)}
			}
			seen[directive] = true
		}

		if err := validateContext(directive, "location", line); err != nil {
			return nil, err
		}

		switch directive {
		case "limit_except":
			le, err := p.parseLimitExcept()
			if err != nil {
				return nil, err
			}
			loc.LimitExcept = le
		case "return":
			r, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			loc.Return = r
		case "root":
			v, err := p.parsePathDirective("root")
			if err != nil {
				return nil, err
			}
			loc.Root = &v
		case "alias":
			v, err := p.parsePathDirective("alias")
			if err != nil {
				return nil, err
			}
			loc.Alias = &v
		case "autoindex":
			v, err := p.parseAutoindex()
			if err != nil {
				return nil, err
			}
			loc.Autoindex = &v
		case "index":
			v, err := p.parseSingleValueDirective("index")
			if err != nil {
				return nil, err
			}
			loc.Index = &v
		case "cgi_pass":
			v, err := p.parseSingleValueDirective("cgi_pass")
			if err != nil {
				return nil, err
			}
			loc.CgiPass = &v
		case "client_max_body_size":
			v, err := p.parseBodySizeValue()
			if err != nil {
				return nil, err
			}
			loc.BodySize = &v
		case "error_page":
			codes, path, err := p.parseErrorPage()
			if err != nil {
				return nil, err
			}
			if loc.ErrorPages == nil {
				loc.ErrorPages = ErrorPages{}
			}
			for _, c := range codes {
				loc.ErrorPages[c] = path
			}
		default:
			return nil, &ConfigError{Line: line, Message: fmt.Sprintf("unknown directive '%s' in location context", directive)}
		}
	}

	if loc.Root != nil && loc.Alias != nil {
		return nil, &ConfigError{Line: p.cur().Line, Message: "'root' and 'alias' directives cannot be used together in the same location context"}
	}

	return loc, p.expect("}")
}

// --- individual directive value parsers ---

func (p *parser) parseSingleValueDirective(name string) (string, error) {
	line := p.cur().Line
	p.advance() // directive keyword
	v := p.curVal()
	if v == "" || v == ";" {
		return "", &ConfigError{Line: line, Message: fmt.Sprintf("'%s' directive requires a value", name)}
	}
	p.advance()
	return v, p.expect(";")
}

func (p *parser) parsePathDirective(name string) (string, error) {
	line := p.cur().Line
	v, err := p.parseSingleValueDirective(name)
	if err != nil {
		return "", err
	}
	if v[0] != '/' {
		return "", &ConfigError{Line: line, Message: fmt.Sprintf("'%s' path must be an absolute path starting with '/'", name)}
	}
	return v, nil
}

func (p *parser) parseBodySizeValue() (int64, error) {
	line := p.cur().Line
	raw, err := p.parseSingleValueDirective("client_max_body_size")
	if err != nil {
		return 0, err
	}
	n, ok := parseBodySize(raw)
	if !ok {
		return 0, &ConfigError{Line: line, Message: fmt.Sprintf("invalid body size format: %s", raw)}
	}
	return n, nil
}

func (p *parser) parseListen() (Listen, error) {
	line := p.cur().Line
	p.advance() // "listen"
	addr := p.curVal()
	if addr == "" || addr == ";" {
		return Listen{}, &ConfigError{Line: line, Message: "listen directive requires an address or port"}
	}
	p.advance()

	l := Listen{}
	if p.is("default_server") {
		l.Default = true
		p.advance()
	}
	if err := p.expect(";"); err != nil {
		return Listen{}, err
	}

	l.Host, l.Port = parseListenAddress(addr)
	return l, nil
}

func (p *parser) parseReturn() (*Return, error) {
	line := p.cur().Line
	p.advance() // "return"

	codeStr := p.curVal()
	if codeStr == "" || codeStr == ";" {
		return nil, &ConfigError{Line: line, Message: "return directive requires status code and URL"}
	}
	p.advance()

	url := p.curVal()
	if url == "" || url == ";" {
		return nil, &ConfigError{Line: line, Message: "return directive requires URL after status code"}
	}
	p.advance()

	if err := p.expect(";"); err != nil {
		return nil, err
	}

	code, err := strconv.Atoi(codeStr)
	if err != nil || code < 100 || code > 599 {
		return nil, &ConfigError{Line: line, Message: fmt.Sprintf("invalid HTTP status code: %s", codeStr)}
	}

	return &Return{Code: code, URL: url}, nil
}

func (p *parser) parseAutoindex() (bool, error) {
	line := p.cur().Line
	v, err := p.parseSingleValueDirective("autoindex")
	if err != nil {
		return false, err
	}
	switch v {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, &ConfigError{Line: line, Message: "autoindex directive accepts only: on, off, true, false, 1, 0"}
	}
}

func (p *parser) parseErrorPage() ([]int, string, error) {
	line := p.cur().Line
	p.advance() // "error_page"

	var codes []int
	seen := map[int]bool{}

	for p.curVal() != "" && p.curVal() != ";" && isAllDigits(p.curVal()) {
		n, _ := strconv.Atoi(p.curVal())
		if n < 100 || n > 599 {
			return nil, "", &ConfigError{Line: line, Message: fmt.Sprintf("invalid HTTP status code: %d (must be 100-599)", n)}
		}
		if !seen[n] {
			seen[n] = true
			codes = append(codes, n)
		}
		p.advance()
	}

	if len(codes) == 0 {
		return nil, "", &ConfigError{Line: line, Message: "error_page directive requires at least one status code"}
	}

	path := p.curVal()
	if path == "" || path == ";" {
		return nil, "", &ConfigError{Line: line, Message: "error_page directive requires a path after status codes"}
	}
	p.advance()

	return codes, path, p.expect(";")
}

var validMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true,
}

func (p *parser) parseLimitExcept() (*LimitExcept, error) {
	line := p.cur().Line
	p.advance() // "limit_except"

	le := &LimitExcept{Allowed: map[string]bool{}}

	for !p.is("{") && p.curVal() != "" {
		method := p.curVal()
		if !validMethods[method] {
			return nil, &ConfigError{Line: p.cur().Line, Message: fmt.Sprintf("expected '{' after limit_except methods but got '%s'", method)}
		}
		le.Allowed[method] = true
		p.advance()
	}

	if err := p.expect("{"); err != nil {
		return nil, err
	}

	denyAll := false
	for !p.is("}") && p.curVal() != "" {
		directive := p.curVal()
		if directive != "deny" {
			return nil, &ConfigError{Line: p.cur().Line, Message: fmt.Sprintf("unknown directive '%s' in limit_except context", directive)}
		}
		p.advance()
		if !p.is("all") {
			return nil, &ConfigError{Line: p.cur().Line, Message: "expected 'all' after 'deny'"}
		}
		denyAll = true
		p.advance()
		if err := p.expect(";"); err != nil {
			return nil, err
		}
	}

	if err := p.expect("}"); err != nil {
		return nil, err
	}

	if !denyAll {
		return nil, &ConfigError{Line: line, Message: "limit_except block must contain 'deny all;'"}
	}

	return le, nil
}

// --- free helpers grounded on the original parser's value rules ---

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func parseBodySize(size string) (int64, bool) {
	if size == "" {
		return 0, false
	}

	unit := size[len(size)-1]
	var mult int64 = 1
	numPart := size

	switch unit {
	case 'K', 'k':
		mult = 1 << 10
		numPart = size[:len(size)-1]
	case 'M', 'm':
		mult = 1 << 20
		numPart = size[:len(size)-1]
	case 'G', 'g':
		mult = 1 << 30
		numPart = size[:len(size)-1]
	default:
		if unit < '0' || unit > '9' {
			return 0, false
		}
	}

	if !isAllDigits(numPart) {
		return 0, false
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return n * mult, true
}

// atoiLoose mimics C's atoi: parses a leading run of digits (with optional
// leading sign) and returns 0 if there is none, ignoring trailing garbage.
func atoiLoose(s string) int {
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if start == i {
		return 0
	}
	n, _ := strconv.Atoi(s[start:i])
	if neg {
		return -n
	}
	return n
}

// parseListenAddress implements spec.md §4.1's listen-splitting rule.
func parseListenAddress(address string) (host string, port int) {
	if idx := strings.IndexByte(address, ':'); idx != -1 {
		return address[:idx], atoiLoose(address[idx+1:])
	}
	if len(address) > 0 && address[0] >= '0' && address[0] <= '9' && !strings.Contains(address, ".") {
		return "0.0.0.0", atoiLoose(address)
	}
	return address, 80
}
