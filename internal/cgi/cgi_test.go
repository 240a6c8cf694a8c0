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

package cgi_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/cgi"
	"github.com/nabbar/webserv/internal/request"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("cgi fork/exec scenarios require a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newLoc(path string) *config.LocationContext {
	return &config.LocationContext{Path: "/cgi-bin/"}
}

type fakeObserver struct {
	outcomes []string
}

func (f *fakeObserver) ObserveCGI(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

func TestExecute_RecordsSuccessAndBadGatewayOutcomes(t *testing.T) {
	ok := writeScript(t, `printf 'Content-Type: text/plain\r\n\r\nhello'`)
	fail := writeScript(t, `exit 1`)

	obs := &fakeObserver{}
	gw := cgi.New(nil)
	gw.Metrics = obs

	req := &request.Request{Method: "GET", Path: "/cgi-bin/script.sh", Version: "HTTP/1.1", Headers: request.Header{}}
	gw.Execute("", ok, req, &config.ServerContext{}, newLoc(ok))
	gw.Execute("", fail, req, &config.ServerContext{}, newLoc(fail))

	if len(obs.outcomes) != 2 || obs.outcomes[0] != "success" || obs.outcomes[1] != "bad_gateway" {
		t.Fatalf("expected [success bad_gateway], got %v", obs.outcomes)
	}
}

func TestExecute_ScriptWritesThenExits(t *testing.T) {
	script := writeScript(t, `printf 'Content-Type: text/plain\r\n\r\nhello'`)

	gw := cgi.New(nil)
	req := &request.Request{Method: "GET", Path: "/cgi-bin/script.sh", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := gw.Execute("", script, req, &config.ServerContext{}, newLoc(script))

	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("expected body %q, got %q", "hello", resp.Body)
	}
}

func TestExecute_ScriptWaitsForFullStdinThenWrites(t *testing.T) {
	script := writeScript(t, `
data=$(cat)
printf 'Content-Type: text/plain\r\n\r\necho:%s' "$data"
`)

	gw := cgi.New(nil)
	req := &request.Request{
		Method: "POST", Path: "/cgi-bin/script.sh", Version: "HTTP/1.1",
		Headers: request.Header{}, Body: []byte("payload-body"),
	}
	resp := gw.Execute("", script, req, &config.ServerContext{}, newLoc(script))

	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "payload-body") {
		t.Errorf("expected echoed stdin in body, got %q", resp.Body)
	}
}

func TestExecute_ScriptIgnoresStdin(t *testing.T) {
	script := writeScript(t, `printf 'Status: 201 Created\r\nContent-Type: text/plain\r\n\r\nignored stdin'`)

	gw := cgi.New(nil)
	req := &request.Request{
		Method: "POST", Path: "/cgi-bin/script.sh", Version: "HTTP/1.1",
		Headers: request.Header{}, Body: []byte(strings.Repeat("x", 200_000)),
	}
	resp := gw.Execute("", script, req, &config.ServerContext{}, newLoc(script))

	if resp.Status != 201 {
		t.Fatalf("expected 201, got %d", resp.Status)
	}
	if string(resp.Body) != "ignored stdin" {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestExecute_NonZeroExitIsBadGateway(t *testing.T) {
	script := writeScript(t, `exit 1`)

	gw := cgi.New(nil)
	req := &request.Request{Method: "GET", Path: "/cgi-bin/script.sh", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := gw.Execute("", script, req, &config.ServerContext{}, newLoc(script))

	if resp.Status != 502 {
		t.Fatalf("expected 502, got %d", resp.Status)
	}
}

func TestExecute_InterpreterStyleInvocation(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "hello.sh")
	if err := os.WriteFile(script, []byte("printf 'Content-Type: text/plain\\r\\n\\r\\nvia-interpreter'"), 0644); err != nil {
		t.Fatal(err)
	}

	gw := cgi.New(nil)
	req := &request.Request{Method: "GET", Path: "/cgi-bin/hello.sh", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := gw.Execute("/bin/sh", script, req, &config.ServerContext{}, newLoc(script))

	if resp.Status != 200 || string(resp.Body) != "via-interpreter" {
		t.Fatalf("expected 200/via-interpreter, got status=%d body=%q", resp.Status, resp.Body)
	}
}
