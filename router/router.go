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

// Package router selects the server block and location block that should
// handle a request, mirroring nginx's own resolution order: exact
// server_name match first, then the listen marked default_server, then
// whichever server block is first in file order for that port. Location
// matching is longest-prefix, preferring among all matches the longest
// location whose limit_except permits the request's method, and falling
// back to the longest match overall only when none does.
package router

import (
	"strings"

	"github.com/nabbar/webserv/config"
)

// Router resolves an inbound (host, port, path, method) to a config
// location, built once from a parsed and cascaded HttpContext.
type Router struct {
	servers []*config.ServerContext
}

// New builds a Router over all server blocks declared under http.
func New(h *config.HttpContext) *Router {
	return &Router{servers: h.Servers}
}

// MatchServer implements the Host-header resolution order: an exact
// server_name match on this port wins; failing that, the listen flagged
// default_server on this port; failing that, the first server block that
// listens on this port at all. Returns nil if no server listens on port.
func (r *Router) MatchServer(host string, port int) *config.ServerContext {
	host = stripHostPort(host)

	var (
		fallback       *config.ServerContext
		defaultServer  *config.ServerContext
	)

	for _, srv := range r.servers {
		if !listensOn(srv, port) {
			continue
		}
		if fallback == nil {
			fallback = srv
		}
		if srv.ServerName != nil && *srv.ServerName == host {
			return srv
		}
		if defaultServer == nil && hasDefaultListen(srv, port) {
			defaultServer = srv
		}
	}

	if defaultServer != nil {
		return defaultServer
	}
	return fallback
}

// MatchLocation performs longest-prefix matching over srv's locations.
// Among all matching locations, the longest one whose limit_except
// permits the request's method wins; a narrower, method-restricted block
// never shadows a broader block that would actually serve the request.
// Only when no matching location permits the method at all does the
// longest match overall get returned, so the caller can still produce a
// 405 for that location.
func (r *Router) MatchLocation(srv *config.ServerContext, path, method string) *config.LocationContext {
	var (
		longestMatch *config.LocationContext
		longestLen   = -1
		bestMatch    *config.LocationContext
		bestMatchLen = -1
	)

	for _, loc := range srv.Locations {
		if !isPrefixMatch(loc.Path, path) {
			continue
		}
		length := len(loc.Path)

		if length > longestLen {
			longestMatch, longestLen = loc, length
		}
		if loc.IsMethodAllowed(method) && length > bestMatchLen {
			bestMatch, bestMatchLen = loc, length
		}
	}

	if bestMatch != nil {
		return bestMatch
	}
	return longestMatch
}

// isPrefixMatch applies nginx's trailing-slash prefix rule: a location path
// ending in "/" matches the request path itself (without the slash) as well
// as anything beneath it.
func isPrefixMatch(locPath, reqPath string) bool {
	if locPath == "/" {
		return true
	}
	if strings.HasSuffix(locPath, "/") {
		trimmed := strings.TrimSuffix(locPath, "/")
		return reqPath == trimmed || strings.HasPrefix(reqPath, locPath)
	}
	if reqPath == locPath {
		return true
	}
	return strings.HasPrefix(reqPath, locPath+"/")
}

func listensOn(srv *config.ServerContext, port int) bool {
	for _, l := range srv.Listens {
		if l.Port == port {
			return true
		}
	}
	return false
}

func hasDefaultListen(srv *config.ServerContext, port int) bool {
	for _, l := range srv.Listens {
		if l.Port == port && l.Default {
			return true
		}
	}
	return false
}

func stripHostPort(host string) string {
	if idx := strings.IndexByte(host, ':'); idx != -1 {
		return host[:idx]
	}
	return host
}
