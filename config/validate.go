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

import "fmt"

// validate runs after cascading and rejects configurations that parsed
// cleanly but cannot be applied: a listen address with a port outside
// 1-65535 (including the port=0 produced by an unparsable listen target),
// and a cgi_pass location with no interpreter path.
func validate(h *HttpContext) error {
	if len(h.Servers) == 0 {
		return &ConfigError{Line: 1, Message: "http block requires at least one server block"}
	}

	for _, srv := range h.Servers {
		for _, l := range srv.Listens {
			if l.Port < 1 || l.Port > 65535 {
				return &ConfigError{Line: 1, Message: fmt.Sprintf("listen directive resolved to invalid port %d", l.Port)}
			}
		}
		for _, loc := range srv.Locations {
			if loc.CgiPass != nil && *loc.CgiPass == "" {
				return &ConfigError{Line: 1, Message: fmt.Sprintf("cgi_pass directive in location '%s' requires an interpreter path", loc.Path)}
			}
		}
	}

	return nil
}
