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

// Package conn is the per-connection state machine: it owns the read and
// write buffers, drives the request parser across readable events, and
// hands complete requests to a Dispatcher, entirely independent of how
// bytes actually arrive (the event loop owns the socket).
package conn

import (
	"time"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
	"github.com/nabbar/webserv/router"
)

// DefaultBodySize applies when no client_max_body_size is configured at
// any level reachable by the matched location.
const DefaultBodySize int64 = 1 << 20

// CompactThreshold is how large the consumed prefix of the read buffer may
// grow before it is physically discarded.
const CompactThreshold = 1 << 20

// IdleTimeout is how long a connection may sit with no activity before
// the event loop's tick sweep closes it.
const IdleTimeout = 30 * time.Second

// Dispatcher turns a fully parsed request, routed to its server and
// location, into a response. Implemented by the handler package (and, for
// cgi_pass locations, delegated further to the CGI gateway).
type Dispatcher interface {
	Dispatch(req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response
}

// Connection is one accepted TCP connection's parser/dispatch/writer state.
type Connection struct {
	ListenPort int
	ServerName string // used only for Server: response header

	State ClientState
	Phase HeaderPhase

	readBuf  []byte
	consumed int
	headerEnd int

	writeBuf    []byte
	writeOffset int

	req  *request.Request
	srv  *config.ServerContext
	loc  *config.LocationContext
	resp *response.Response

	pendingVersion string
	pendingMethod  string

	closeAfterWrite bool
	LastActivity    time.Time

	cfg    *config.HttpContext
	router *router.Router
}

// New creates a connection freshly accepted on listenPort.
func New(listenPort int, serverName string, cfg *config.HttpContext, r *router.Router) *Connection {
	return &Connection{
		ListenPort:   listenPort,
		ServerName:   serverName,
		State:        StateReading,
		Phase:        HeaderIncomplete,
		cfg:          cfg,
		router:       r,
		LastActivity: time.Now(),
	}
}

// Feed appends freshly received bytes to the read buffer.
func (c *Connection) Feed(data []byte) {
	c.readBuf = append(c.readBuf, data...)
	c.LastActivity = time.Now()
}

func (c *Connection) unread() []byte { return c.readBuf[c.consumed:] }

// Step advances the parser/dispatch state machine as far as the currently
// buffered bytes allow, calling dispatch exactly once per request. It
// returns once either more input is needed or a response is ready to send.
func (c *Connection) Step(dispatch Dispatcher) {
	for {
		switch c.Phase {
		case HeaderIncomplete:
			if !c.stepHeaders() {
				return
			}
		case HeaderComplete:
			if !c.stepRoute() {
				return
			}
		case BodyReceiving:
			if !c.stepBody() {
				return
			}
		case RequestComplete:
			c.State = StateProcessing
			resp := dispatch.Dispatch(c.req, c.srv, c.loc)
			c.setResponse(resp, c.req.Version, c.req.Method, c.req.KeepAlive(resp.Status))
			return
		default:
			return
		}
	}
}

func (c *Connection) stepHeaders() bool {
	req, bodyStart, err := request.ParseHeaders(c.unread())
	if err == request.ErrIncomplete {
		return false
	}
	if perr, ok := err.(*request.ParseError); ok {
		c.respondParseError(perr.Status)
		return false
	}

	c.req = req
	c.headerEnd = c.consumed + bodyStart
	c.Phase = HeaderComplete
	return true
}

func (c *Connection) stepRoute() bool {
	host, _ := c.req.Headers.Get("host")

	srv := c.router.MatchServer(host, c.ListenPort)
	if srv == nil {
		c.respondRouted(500, nil, nil)
		return false
	}

	loc := c.router.MatchLocation(srv, c.req.Path, c.req.Method)
	if loc == nil {
		c.respondRouted(404, srv, nil)
		return false
	}
	if !loc.IsMethodAllowed(c.req.Method) {
		c.respondRouted(405, srv, loc)
		return false
	}

	c.srv, c.loc = srv, loc

	if !c.req.HasBody() {
		c.Phase = RequestComplete
		return true
	}

	limit := effectiveBodySize(loc)
	if c.req.ContentLength > 0 && limit > 0 && c.req.ContentLength > limit {
		c.respondRouted(413, srv, loc)
		return false
	}

	c.Phase = BodyReceiving
	return true
}

func (c *Connection) stepBody() bool {
	limit := effectiveBodySize(c.loc)

	if c.req.Chunked {
		body, consumed, complete, err := request.DecodeChunked(c.readBuf, c.headerEnd, limit)
		if err != nil {
			perr := err.(*request.ParseError)
			c.respondRouted(perr.Status, c.srv, c.loc)
			return false
		}
		if !complete {
			return false
		}
		c.req.Body = body
		c.req.BodyOwned = true
		c.consumed = c.headerEnd + consumed
	} else {
		body, ok := request.ExtractContentLengthBody(c.readBuf, c.headerEnd, c.req.ContentLength)
		if !ok {
			return false
		}
		c.req.Body = body
		c.consumed = c.headerEnd + int(c.req.ContentLength)
	}

	c.Phase = RequestComplete
	return true
}

func effectiveBodySize(loc *config.LocationContext) int64 {
	if loc != nil && loc.BodySize != nil {
		return *loc.BodySize
	}
	return DefaultBodySize
}

// respondParseError handles failures before a Request even exists
// (malformed request-line, oversize headers, bad version): the connection
// always closes afterward since the peer's framing can no longer be trusted.
func (c *Connection) respondParseError(status int) {
	resp := response.BuildError(status, nil, nil)
	c.setResponse(resp, "HTTP/1.1", "GET", false)
}

// respondRouted handles failures discovered after routing, where a real
// error-page chain (location/server/http) may apply.
func (c *Connection) respondRouted(status int, srv *config.ServerContext, loc *config.LocationContext) {
	lookup := func(code int) (string, bool) {
		if loc != nil {
			if p, ok := loc.ErrorPages[code]; ok {
				return p, true
			}
		}
		if srv != nil {
			if p, ok := srv.ErrorPages[code]; ok {
				return p, true
			}
		}
		if c.cfg != nil {
			if p, ok := c.cfg.ErrorPages[code]; ok {
				return p, true
			}
		}
		return "", false
	}

	resp := response.BuildError(status, lookup, loadErrorPage)
	keepAlive := false
	if c.req != nil {
		keepAlive = c.req.KeepAlive(status)
	}
	version, method := "HTTP/1.1", "GET"
	if c.req != nil {
		version, method = c.req.Version, c.req.Method
	}
	c.setResponse(resp, version, method, keepAlive)
}

func (c *Connection) setResponse(resp *response.Response, version, method string, keepAlive bool) {
	c.resp = resp
	c.pendingVersion = version
	c.pendingMethod = method
	c.closeAfterWrite = !keepAlive
	c.State = StateWriting
}

// PendingWrite serializes the response on first call (lazily, per §4.2)
// and returns the remaining unsent bytes.
func (c *Connection) PendingWrite() []byte {
	if c.writeBuf == nil && c.resp != nil {
		c.writeBuf = c.resp.Serialize(c.pendingVersion, c.pendingMethod, !c.closeAfterWrite, c.ServerName)
	}
	return c.writeBuf[c.writeOffset:]
}

// Advance records n freshly sent bytes. It returns true once the whole
// response has been flushed.
func (c *Connection) Advance(n int) bool {
	c.writeOffset += n
	return c.writeOffset >= len(c.writeBuf)
}

// ShouldClose reports whether the connection must close now that its
// response has been fully written.
func (c *Connection) ShouldClose() bool { return c.closeAfterWrite }

// Reset prepares the connection for the next pipelined-free request,
// preserving any bytes already read past the one just completed.
func (c *Connection) Reset() {
	remaining := c.readBuf[c.consumed:]
	c.readBuf = append([]byte(nil), remaining...)
	c.consumed = 0
	c.headerEnd = 0

	c.req = nil
	c.srv = nil
	c.loc = nil
	c.resp = nil
	c.writeBuf = nil
	c.writeOffset = 0
	c.closeAfterWrite = false

	c.Phase = HeaderIncomplete
	c.State = StateReading
	c.LastActivity = time.Now()
}

// Compact discards the consumed prefix of the read buffer once it has
// grown past CompactThreshold, so a long-lived keep-alive connection does
// not retain every byte it has ever received.
func (c *Connection) Compact() {
	if c.consumed < CompactThreshold {
		return
	}
	c.readBuf = append([]byte(nil), c.readBuf[c.consumed:]...)
	c.headerEnd -= c.consumed
	c.consumed = 0
}

// IsIdle reports whether now minus LastActivity exceeds IdleTimeout. A
// connection mid-body-receive is never idle, matching §4.6's sweep rule.
func (c *Connection) IsIdle(now time.Time) bool {
	if c.Phase == BodyReceiving {
		return false
	}
	return now.Sub(c.LastActivity) > IdleTimeout
}

func loadErrorPage(path string) ([]byte, error) {
	return errorPageReader(path)
}

// errorPageReader is a package-level indirection so tests can substitute a
// fake filesystem without touching the real one.
var errorPageReader = fsutil.Read
