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

package handler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/handler"
	"github.com/nabbar/webserv/internal/request"
)

func newLoc(t *testing.T, root string) *config.LocationContext {
	t.Helper()
	return &config.LocationContext{Path: "/", Root: &root}
}

type recordedObservation struct {
	method   string
	status   int
	duration time.Duration
}

type fakeObserver struct {
	calls []recordedObservation
}

func (f *fakeObserver) ObserveRequest(method string, status int, duration time.Duration) {
	f.calls = append(f.calls, recordedObservation{method: method, status: status, duration: duration})
}

func TestDispatch_RecordsMetricsObservation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.html"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	obs := &fakeObserver{}
	h := handler.New(nil, nil)
	h.Metrics = obs

	req := &request.Request{Method: "GET", Path: "/hello.html", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if len(obs.calls) != 1 {
		t.Fatalf("expected exactly one observation, got %d", len(obs.calls))
	}
	if obs.calls[0].method != "GET" || obs.calls[0].status != resp.Status {
		t.Fatalf("unexpected observation %+v for response status %d", obs.calls[0], resp.Status)
	}
}

func TestDispatch_GetServesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.html"), []byte("<p>hi</p>"), 0644); err != nil {
		t.Fatal(err)
	}

	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/hello.html", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if ct, _ := resp.Header("Content-Type"); ct != "text/html" {
		t.Errorf("expected text/html, got %q", ct)
	}
}

func TestDispatch_GetMissingFileIs404(t *testing.T) {
	dir := t.TempDir()
	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/nope.html", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 404 {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestDispatch_GetDirectoryWithoutSlashRedirects(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/sub", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 301 {
		t.Fatalf("expected 301, got %d", resp.Status)
	}
	if loc, _ := resp.Header("Location"); loc != "/sub/" {
		t.Errorf("expected Location /sub/, got %q", loc)
	}
}

func TestDispatch_GetDirectoryServesIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("home"), 0644); err != nil {
		t.Fatal(err)
	}

	index := "index.html"
	loc := newLoc(t, dir)
	loc.Index = &index

	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, loc)

	if resp.Status != 200 || string(resp.Body) != "home" {
		t.Fatalf("expected index.html body, got status=%d body=%q", resp.Status, resp.Body)
	}
}

func TestDispatch_GetDirectoryAutoindexListsEntries(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	auto := true
	loc := newLoc(t, dir)
	loc.Autoindex = &auto

	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, loc)

	if resp.Status != 200 || !strings.Contains(string(resp.Body), "a.txt") {
		t.Fatalf("expected autoindex listing containing a.txt, got %q", resp.Body)
	}
}

func TestDispatch_PostEmptyBodyReturns200WithoutWriting(t *testing.T) {
	dir := t.TempDir()
	h := handler.New(nil, nil)
	req := &request.Request{Method: "POST", Path: "/", Version: "HTTP/1.1", Headers: request.Header{}, Body: nil}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 200 {
		t.Fatalf("expected 200 for empty POST, got %d", resp.Status)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no file written for empty POST body, found %d entries", len(entries))
	}
}

func TestDispatch_PostWritesUploadAndReturns201(t *testing.T) {
	dir := t.TempDir()
	h := handler.New(nil, nil)
	req := &request.Request{Method: "POST", Path: "/uploads", Version: "HTTP/1.1", Headers: request.Header{}, Body: []byte("payload")}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 201 {
		t.Fatalf("expected 201, got %d", resp.Status)
	}
	loc, ok := resp.Header("Location")
	if !ok || !strings.HasPrefix(loc, "/uploads/") || !strings.HasSuffix(loc, ".upload") {
		t.Fatalf("unexpected Location header: %q", loc)
	}
}

func TestDispatch_DeleteDirectoryIs403(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	h := handler.New(nil, nil)
	req := &request.Request{Method: "DELETE", Path: "/sub", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 403 {
		t.Fatalf("expected 403, got %d", resp.Status)
	}
}

func TestDispatch_DeleteMissingIs404(t *testing.T) {
	dir := t.TempDir()
	h := handler.New(nil, nil)
	req := &request.Request{Method: "DELETE", Path: "/nope", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 404 {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestDispatch_DeleteFileSucceeds(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(target, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	h := handler.New(nil, nil)
	req := &request.Request{Method: "DELETE", Path: "/gone.txt", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 200 {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
}

func TestDispatch_ReturnDirectiveShortCircuits(t *testing.T) {
	dir := t.TempDir()
	loc := newLoc(t, dir)
	loc.Return = &config.Return{Code: 302, URL: "https://example.com"}

	h := handler.New(nil, nil)
	req := &request.Request{Method: "GET", Path: "/", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, loc)

	if resp.Status != 302 {
		t.Fatalf("expected 302, got %d", resp.Status)
	}
	if u, _ := resp.Header("Location"); u != "https://example.com" {
		t.Errorf("expected Location to be the return URL, got %q", u)
	}
}

func TestDispatch_UnsupportedMethodIs501(t *testing.T) {
	dir := t.TempDir()
	h := handler.New(nil, nil)
	req := &request.Request{Method: "PATCH", Path: "/", Version: "HTTP/1.1", Headers: request.Header{}}
	resp := h.Dispatch(req, &config.ServerContext{}, newLoc(t, dir))

	if resp.Status != 501 {
		t.Fatalf("expected 501, got %d", resp.Status)
	}
}
