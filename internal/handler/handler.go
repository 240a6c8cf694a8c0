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

// Package handler translates a routed request into a filesystem effect and
// a response: GET serves files and directory listings, POST writes
// uploads, DELETE removes resources, and a location's return directive
// short-circuits into a redirect. A cgi_pass location is delegated whole
// to a CGIGateway instead.
package handler

import (
	"time"

	liblog "github.com/nabbar/webserv/logger"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
)

var loadFile = fsutil.Read

// CGIGateway executes a cgi_pass location. interpreter is the location's
// configured cgi_pass value; script is the resolved absolute path to the
// target file the interpreter should run.
type CGIGateway interface {
	Execute(interpreter, script string, req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response
}

// RequestObserver records a completed request's method, final status and
// handling latency. *metrics.Registry implements it.
type RequestObserver interface {
	ObserveRequest(method string, status int, duration time.Duration)
}

// Handler implements conn.Dispatcher: it is the single entry point the
// connection state machine calls once a request is fully parsed and
// routed.
type Handler struct {
	CGI     CGIGateway
	Log     liblog.Logger
	Metrics RequestObserver
}

// New builds a Handler. cgi may be nil if no location in the configuration
// declares cgi_pass.
func New(cgi CGIGateway, log liblog.Logger) *Handler {
	return &Handler{CGI: cgi, Log: log}
}

// Dispatch implements conn.Dispatcher.
func (h *Handler) Dispatch(req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response {
	start := time.Now()
	resp := h.dispatch(req, srv, loc)
	if h.Metrics != nil {
		h.Metrics.ObserveRequest(req.Method, resp.Status, time.Since(start))
	}
	return resp
}

func (h *Handler) dispatch(req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response {
	if loc.Return != nil {
		return redirect(loc.Return)
	}

	if loc.CgiPass != nil {
		if h.CGI == nil {
			return errorResponse(502, loc)
		}
		script, err := resolvePath(loc, req.Path)
		if err != nil {
			return errorResponse(400, loc)
		}
		return h.CGI.Execute(*loc.CgiPass, script, req, srv, loc)
	}

	switch req.Method {
	case "GET", "HEAD":
		return h.handleGet(req, loc)
	case "POST":
		return h.handlePost(req, loc)
	case "DELETE":
		return h.handleDelete(req, loc)
	default:
		return errorResponse(501, loc)
	}
}

func redirect(ret *config.Return) *response.Response {
	r := response.New(ret.Code)
	r.SetHeader("Location", ret.URL)
	return r
}

func errorResponse(status int, loc *config.LocationContext) *response.Response {
	var lookup response.ErrorPageLookup
	if loc != nil {
		lookup = func(code int) (string, bool) {
			p, ok := loc.ErrorPages[code]
			return p, ok
		}
	}
	return response.BuildError(status, lookup, loadFile)
}
