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

// Package cgi implements the classic CGI/1.1 gateway: one fork/exec per
// request, RFC 3875 environment construction, and non-blocking stdin/stdout
// multiplexing so a script that reads before writing, or never reads at
// all, cannot deadlock the exchange. Grounded on the fork/exec/pipe
// sequence in original_source's CgiExecuter, reimplemented on
// golang.org/x/sys/unix poll primitives in place of the original's poll(2)
// wrapper.
package cgi

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/webserv/config"
	liblog "github.com/nabbar/webserv/logger"

	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
)

// Timeout is the wall-clock limit on one CGI exchange (spec §4.7 step 5).
const Timeout = 30 * time.Second

// killGrace is how long the gateway waits between SIGTERM and SIGKILL.
const killGrace = 2 * time.Second

// InvocationObserver records one CGI invocation's outcome.
// *metrics.Registry implements it.
type InvocationObserver interface {
	ObserveCGI(outcome string)
}

// Gateway executes classic CGI scripts and adapts their stdout into a
// *response.Response. It implements handler.CGIGateway.
type Gateway struct {
	Log     liblog.Logger
	Metrics InvocationObserver
}

// New builds a Gateway. log may be nil.
func New(log liblog.Logger) *Gateway {
	return &Gateway{Log: log}
}

// Execute runs interpreter with script as its argument (or script directly
// when interpreter is empty), feeds req's body on stdin, and parses the
// child's stdout as a CGI response.
func (g *Gateway) Execute(interpreter, script string, req *request.Request, srv *config.ServerContext, loc *config.LocationContext) *response.Response {
	scriptName, pathInfo := splitScriptPath(loc.Path, req.Path)
	env := buildEnv(script, scriptName, pathInfo, req, srv, loc)

	var cmd *exec.Cmd
	if interpreter == "" {
		cmd = exec.Command(script)
	} else {
		cmd = exec.Command(interpreter, script)
	}
	cmd.Dir = dirOf(script)
	cmd.Env = append(os.Environ(), env...)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return response.BuildError(502, nil, nil)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return response.BuildError(502, nil, nil)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err = cmd.Start(); err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return response.BuildError(502, nil, nil)
	}

	_ = stdinR.Close()
	_ = stdoutW.Close()
	defer func() { _ = stdoutR.Close() }()

	_ = syscall.SetNonblock(int(stdinW.Fd()), true)
	_ = syscall.SetNonblock(int(stdoutR.Fd()), true)

	deadline := time.Now().Add(Timeout)
	out, timedOut, runErr := pump(cmd, stdinW, stdoutR, req.Body, deadline)

	switch {
	case timedOut:
		if g.Log != nil {
			g.Log.Warnf("cgi: script %s timed out after %s", script, Timeout)
		}
		g.observe("timeout")
		return response.BuildError(504, nil, nil)
	case runErr != nil:
		if g.Log != nil {
			g.Log.Errorf("cgi: script %s failed: %v (%s)", script, runErr, stderr.String())
		}
		g.observe("bad_gateway")
		return response.BuildError(502, nil, nil)
	case len(out) == 0:
		g.observe("bad_gateway")
		return response.BuildError(504, nil, nil)
	}

	g.observe("success")
	return parseOutput(out)
}

func (g *Gateway) observe(outcome string) {
	if g.Metrics != nil {
		g.Metrics.ObserveCGI(outcome)
	}
}

// pump writes body to the child's stdin and reads its stdout to EOF,
// multiplexing both file descriptors with unix.Poll so a script that
// blocks on one direction never stalls the other. It returns once the
// child's stdout reaches EOF, or once deadline is exceeded and the grace
// period after SIGTERM has elapsed.
func pump(cmd *exec.Cmd, stdinW, stdoutR *os.File, body []byte, deadline time.Time) (out []byte, timedOut bool, err error) {
	var buf bytes.Buffer
	readBuf := make([]byte, 32*1024)
	written := 0
	stdinOpen := true
	stdoutEOF := false
	killed := false
	var killedAt time.Time

	for !stdoutEOF {
		if !killed && time.Now().After(deadline) {
			killProcess(cmd)
			killed = true
			killedAt = time.Now()
			timedOut = true
		}
		if killed && time.Since(killedAt) > killGrace {
			break
		}

		fds := make([]unix.PollFd, 0, 2)
		stdinSlot := -1
		if stdinOpen {
			stdinSlot = len(fds)
			fds = append(fds, unix.PollFd{Fd: int32(stdinW.Fd()), Events: unix.POLLOUT})
		}
		stdoutSlot := len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(stdoutR.Fd()), Events: unix.POLLIN})

		waitMs := 200
		if killed {
			waitMs = 50
		}

		n, perr := unix.Poll(fds, waitMs)
		if perr != nil && perr != unix.EINTR {
			return buf.Bytes(), timedOut, perr
		}
		if n <= 0 {
			continue
		}

		if stdinSlot >= 0 && fds[stdinSlot].Revents&(unix.POLLOUT|unix.POLLERR) != 0 {
			if written < len(body) {
				end := written + 8192
				if end > len(body) {
					end = len(body)
				}
				m, werr := stdinW.Write(body[written:end])
				written += m
				if werr != nil && !isAgain(werr) {
					stdinOpen = false
					_ = stdinW.Close()
				}
			}
			if stdinOpen && written >= len(body) {
				stdinOpen = false
				_ = stdinW.Close()
			}
		}

		if fds[stdoutSlot].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			k, rerr := stdoutR.Read(readBuf)
			if k > 0 {
				buf.Write(readBuf[:k])
			}
			if rerr != nil && (rerr == io.EOF || !isAgain(rerr)) {
				stdoutEOF = true
			}
		}
	}

	if stdinOpen {
		_ = stdinW.Close()
	}

	waitErr := cmd.Wait()
	if timedOut {
		return buf.Bytes(), true, nil
	}
	return buf.Bytes(), false, waitErr
}

func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	go func() {
		time.Sleep(killGrace)
		_ = cmd.Process.Kill()
	}()
}

func isAgain(err error) bool {
	return err == syscall.EAGAIN || err == syscall.EWOULDBLOCK
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			if i == 0 {
				return "/"
			}
			return path[:i]
		}
	}
	return "."
}
