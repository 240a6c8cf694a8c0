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

package conn_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/conn"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
	"github.com/nabbar/webserv/router"
)

type stubDispatcher struct {
	calls int
	fn    func(req *request.Request) *response.Response
}

func (s *stubDispatcher) Dispatch(req *request.Request, _ *config.ServerContext, _ *config.LocationContext) *response.Response {
	s.calls++
	if s.fn != nil {
		return s.fn(req)
	}
	r := response.New(200)
	r.SetBody([]byte("ok"))
	return r
}

func newTestConnection() (*conn.Connection, *router.Router) {
	h := &config.HttpContext{
		Servers: []*config.ServerContext{
			{
				Listens: []config.Listen{{Host: "0.0.0.0", Port: 80}},
				Locations: []*config.LocationContext{
					{Path: "/"},
				},
			},
		},
	}
	r := router.New(h)
	return conn.New(80, "webserv", h, r), r
}

func TestConnection_SimpleGetDispatches(t *testing.T) {
	c, _ := newTestConnection()
	d := &stubDispatcher{}

	c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	c.Step(d)

	if d.calls != 1 {
		t.Fatalf("expected dispatch to be called once, got %d", d.calls)
	}
	if c.State != conn.StateWriting {
		t.Fatalf("expected StateWriting, got %v", c.State)
	}
}

func TestConnection_WaitsForMoreHeaderBytes(t *testing.T) {
	c, _ := newTestConnection()
	d := &stubDispatcher{}

	c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n"))
	c.Step(d)

	if d.calls != 0 {
		t.Fatalf("expected no dispatch yet, got %d calls", d.calls)
	}
	if c.Phase != conn.HeaderIncomplete {
		t.Fatalf("expected still HeaderIncomplete, got %v", c.Phase)
	}
}

func TestConnection_ContentLengthBodyZeroCopy(t *testing.T) {
	c, _ := newTestConnection()
	var gotBody string
	d := &stubDispatcher{fn: func(req *request.Request) *response.Response {
		gotBody = string(req.Body)
		return response.New(201)
	}}

	c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello"))
	c.Step(d)

	if gotBody != "hello" {
		t.Fatalf("expected body 'hello', got %q", gotBody)
	}
}

func TestConnection_ChunkedBodyDecoded(t *testing.T) {
	c, _ := newTestConnection()
	var gotBody string
	d := &stubDispatcher{fn: func(req *request.Request) *response.Response {
		gotBody = string(req.Body)
		return response.New(201)
	}}

	raw := "POST /u HTTP/1.1\r\nHost:x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"7\r\nMozilla\r\n9\r\nDeveloper\r\n7\r\nNetwork\r\n0\r\n\r\n"
	c.Feed([]byte(raw))
	c.Step(d)

	if gotBody != "MozillaDeveloperNetwork" {
		t.Fatalf("expected decoded chunked body, got %q", gotBody)
	}
}

func TestConnection_OversizeBodyIs413(t *testing.T) {
	c, _ := newTestConnection()
	d := &stubDispatcher{}

	c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 99999999\r\n\r\n"))
	c.Step(d)

	out := string(c.PendingWrite())
	if !strings.Contains(out, "413") {
		t.Fatalf("expected 413 response, got:\n%s", out)
	}
	if d.calls != 0 {
		t.Error("expected handler never to be dispatched for an over-limit body")
	}
}

func TestConnection_MethodNotAllowedIs405(t *testing.T) {
	h := &config.HttpContext{
		Servers: []*config.ServerContext{
			{
				Listens: []config.Listen{{Host: "0.0.0.0", Port: 80}},
				Locations: []*config.LocationContext{
					{Path: "/", LimitExcept: &config.LimitExcept{Allowed: map[string]bool{"GET": true}}},
				},
			},
		},
	}
	r := router.New(h)
	c := conn.New(80, "webserv", h, r)
	d := &stubDispatcher{}

	c.Feed([]byte("DELETE / HTTP/1.1\r\nHost: x\r\n\r\n"))
	c.Step(d)

	out := string(c.PendingWrite())
	if !strings.Contains(out, "405") {
		t.Fatalf("expected 405 response, got:\n%s", out)
	}
	if !c.ShouldClose() {
		t.Error("expected 405 to force connection close")
	}
}

func TestConnection_KeepAliveResetPreservesTrailingBytes(t *testing.T) {
	c, _ := newTestConnection()
	d := &stubDispatcher{}

	c.Feed([]byte("GET / HTTP/1.1\r\nHost: x\r\n\r\nGET / HTTP/1.1\r\nHost: x\r\n\r\n"))
	c.Step(d)

	if c.ShouldClose() {
		t.Fatal("expected keep-alive by default on HTTP/1.1")
	}

	c.Reset()
	d2 := &stubDispatcher{}
	c.Step(d2)

	if d2.calls != 1 {
		t.Fatalf("expected second pipelined request to parse after reset, got %d calls", d2.calls)
	}
}

func TestConnection_IsIdleRespectsBodyReceiving(t *testing.T) {
	c, _ := newTestConnection()
	d := &stubDispatcher{}

	c.Feed([]byte("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 100\r\n\r\n"))
	c.Step(d)

	if c.Phase != conn.BodyReceiving {
		t.Fatalf("expected BodyReceiving, got %v", c.Phase)
	}

	future := time.Now().Add(time.Hour)
	if c.IsIdle(future) {
		t.Error("expected a connection mid-body-receive to never be idle")
	}
}
