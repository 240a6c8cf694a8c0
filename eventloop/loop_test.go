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

package eventloop

import (
	"net"
	"runtime"
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/conn"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
	"github.com/nabbar/webserv/router"
)

func skipUnlessLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("eventloop's raw AF_INET sockets are exercised on linux CI")
	}
}

type echoDispatcher struct{}

func (echoDispatcher) Dispatch(req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response {
	r := response.New(200)
	r.SetContentType("text/plain")
	r.SetBody([]byte("ok"))
	return r
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func buildSingleServerConfig(port int) *config.HttpContext {
	root := "/var/www"
	return &config.HttpContext{
		Servers: []*config.ServerContext{
			{
				Listens: []config.Listen{{Host: "127.0.0.1", Port: port}},
				Root:    &root,
				Locations: []*config.LocationContext{
					{Path: "/"},
				},
			},
		},
	}
}

func TestBindListener_AcceptsConnection(t *testing.T) {
	skipUnlessLinux(t)

	lis, err := bindListener("127.0.0.1", freePort(t))
	if err != nil {
		t.Fatalf("bindListener: %v", err)
	}
	defer lis.close()

	dialErr := make(chan error, 1)
	go func() {
		conn, err := net.Dial("tcp4", "127.0.0.1:"+strconv.Itoa(lis.port))
		if err == nil {
			conn.Close()
		}
		dialErr <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		fd, _, _, aerr := lis.accept()
		if aerr == nil {
			unix.Close(fd)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accept: %v", aerr)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := <-dialErr; err != nil {
		t.Fatalf("dial: %v", err)
	}
}

type fakeConnObserver struct {
	opened int
	closed int
}

func (f *fakeConnObserver) ConnectionOpened() { f.opened++ }
func (f *fakeConnObserver) ConnectionClosed() { f.closed++ }

func TestLoop_RunServesOneRequestAndStops(t *testing.T) {
	skipUnlessLinux(t)

	port := freePort(t)
	cfg := buildSingleServerConfig(port)
	r := router.New(cfg)
	loop := New(cfg, r, echoDispatcher{}, nil)
	obs := &fakeConnObserver{}
	loop.SetMetrics(obs)

	if err := loop.Bind(); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- loop.Run() }()

	var resp []byte
	deadline := time.Now().Add(3 * time.Second)
	for {
		c, derr := net.DialTimeout("tcp4", "127.0.0.1:"+strconv.Itoa(port), 200*time.Millisecond)
		if derr == nil {
			_, _ = c.Write([]byte("GET / HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n"))
			buf := make([]byte, 4096)
			c.SetReadDeadline(time.Now().Add(2 * time.Second))
			n, _ := c.Read(buf)
			resp = buf[:n]
			c.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", derr)
		}
		time.Sleep(20 * time.Millisecond)
	}

	loop.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not stop after Stop()")
	}

	if len(resp) == 0 {
		t.Fatal("expected a non-empty HTTP response")
	}
	if obs.opened == 0 {
		t.Fatal("expected at least one ConnectionOpened observation")
	}
	if obs.closed != obs.opened {
		t.Fatalf("expected closed (%d) to match opened (%d) after Stop drains connections", obs.closed, obs.opened)
	}
}
