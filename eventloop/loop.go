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

// Package eventloop is the single-threaded, readiness-driven reactor:
// one goroutine, one unix.Poll call per tick, covering every listening
// socket and every open connection. There is no per-connection goroutine
// and no lock, matching §5's scheduling model. Grounded on
// original_source/src/server/EventLoop.cpp and Server.cpp's
// onReadable/onWritable/onHangup/onTick callback shape, reimplemented on
// golang.org/x/sys/unix poll primitives in place of the original's
// poll(2) wrapper.
package eventloop

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/conn"
	liblog "github.com/nabbar/webserv/logger"
	"github.com/nabbar/webserv/router"
)

// TickInterval bounds how long one Poll call may wait, so the idle sweep
// in §4.6 runs even when no socket is ready.
const TickInterval = 1 * time.Second

// ReadChunk is the size of one non-blocking recv into a connection's read
// buffer.
const ReadChunk = 64 * 1024

// ConnectionObserver tracks connections currently owned by the event
// loop. *metrics.Registry implements it.
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

// Loop owns every listening socket and every accepted connection's
// readiness state. It is not safe for concurrent use; it is meant to run
// on a single goroutine.
type Loop struct {
	cfg     *config.HttpContext
	router  *router.Router
	dis     conn.Dispatcher
	log     liblog.Logger
	metrics ConnectionObserver

	listeners []*listener
	conns     map[int]*connEntry

	stop chan struct{}
}

type connEntry struct {
	fd   int
	c    *conn.Connection
	want wantFlags
}

type wantFlags struct {
	write bool
}

// New builds a Loop bound to cfg's listen directives, routing through r and
// dispatching completed requests to dis. log may be nil.
func New(cfg *config.HttpContext, r *router.Router, dis conn.Dispatcher, log liblog.Logger) *Loop {
	return &Loop{
		cfg:    cfg,
		router: r,
		dis:    dis,
		log:    log,
		conns:  make(map[int]*connEntry),
		stop:   make(chan struct{}),
	}
}

// Bind opens a listening socket for every distinct host:port pair declared
// across the configuration's server blocks.
func (l *Loop) Bind() error {
	seen := make(map[string]bool)
	for _, srv := range l.cfg.Servers {
		for _, ln := range srv.Listens {
			key := fmt.Sprintf("%s:%d", ln.Host, ln.Port)
			if seen[key] {
				continue
			}
			seen[key] = true

			lis, err := bindListener(ln.Host, ln.Port)
			if err != nil {
				return err
			}
			l.listeners = append(l.listeners, lis)
			if l.log != nil {
				l.log.Infof("eventloop: listening on %s:%d", ln.Host, ln.Port)
			}
		}
	}
	return nil
}

// SetMetrics attaches a ConnectionObserver. Safe to skip; nil is the
// default and disables connection-count instrumentation.
func (l *Loop) SetMetrics(m ConnectionObserver) { l.metrics = m }

// Stop requests the loop to return from Run after its current tick.
func (l *Loop) Stop() { close(l.stop) }

// Run drives the reactor until Stop is called. It never spawns a
// goroutine per connection: readiness for every fd is resolved by a
// single unix.Poll call per iteration.
func (l *Loop) Run() error {
	lastTick := time.Now()

	for {
		select {
		case <-l.stop:
			return l.closeAll()
		default:
		}

		fds := l.buildPollSet()
		n, err := unix.Poll(fds, int(TickInterval/time.Millisecond))
		if err != nil && err != unix.EINTR {
			return fmt.Errorf("eventloop: poll: %w", err)
		}

		if n > 0 {
			l.dispatchReady(fds)
		}

		if time.Since(lastTick) >= TickInterval {
			l.sweepIdle()
			lastTick = time.Now()
		}
	}
}

func (l *Loop) buildPollSet() []unix.PollFd {
	fds := make([]unix.PollFd, 0, len(l.listeners)+len(l.conns))
	for _, lis := range l.listeners {
		fds = append(fds, unix.PollFd{Fd: int32(lis.fd), Events: unix.POLLIN})
	}
	for fd, ce := range l.conns {
		ev := int16(unix.POLLIN)
		if ce.want.write {
			ev = unix.POLLOUT
		}
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: ev})
	}
	return fds
}

func (l *Loop) dispatchReady(fds []unix.PollFd) {
	for _, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		fd := int(pfd.Fd)

		if lis := l.listenerByFd(fd); lis != nil {
			l.acceptAll(lis)
			continue
		}

		ce, ok := l.conns[fd]
		if !ok {
			continue
		}

		if pfd.Revents&(unix.POLLHUP|unix.POLLERR) != 0 {
			l.closeConn(fd)
			continue
		}
		if pfd.Revents&unix.POLLIN != 0 {
			l.readable(ce)
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			l.writable(ce)
		}
	}
}

func (l *Loop) listenerByFd(fd int) *listener {
	for _, lis := range l.listeners {
		if lis.fd == fd {
			return lis
		}
	}
	return nil
}

// acceptAll drains a listener's accept backlog: edge-triggered poll
// semantics aren't in play here (we use level-triggered unix.Poll), but
// draining avoids a stampede of repeated wakeups for a burst of
// simultaneous connections.
func (l *Loop) acceptAll(lis *listener) {
	for {
		fd, _, _, err := lis.accept()
		if err != nil {
			return
		}

		c := conn.New(lis.port, l.serverNameFor(lis.port), l.cfg, l.router)
		l.conns[fd] = &connEntry{fd: fd, c: c}
		if l.metrics != nil {
			l.metrics.ConnectionOpened()
		}
	}
}

func (l *Loop) serverNameFor(port int) string {
	for _, srv := range l.cfg.Servers {
		for _, ln := range srv.Listens {
			if ln.Port == port && srv.ServerName != nil {
				return *srv.ServerName
			}
		}
	}
	return "webserv"
}

func (l *Loop) readable(ce *connEntry) {
	buf := make([]byte, ReadChunk)
	n, err := unix.Read(ce.fd, buf)
	if n > 0 {
		ce.c.Feed(buf[:n])
		ce.c.Step(l.dis)
		ce.want.write = ce.c.State == conn.StateWriting
	}
	if n == 0 || (err != nil && !isAgain(err)) {
		l.closeConn(ce.fd)
	}
}

func (l *Loop) writable(ce *connEntry) {
	pending := ce.c.PendingWrite()
	if len(pending) == 0 {
		ce.want.write = false
		return
	}

	n, err := unix.Write(ce.fd, pending)
	if n > 0 {
		done := ce.c.Advance(n)
		if done {
			if ce.c.ShouldClose() {
				l.closeConn(ce.fd)
				return
			}
			ce.c.Reset()
			ce.want.write = false
		}
		return
	}
	if err != nil && !isAgain(err) {
		l.closeConn(ce.fd)
	}
}

func (l *Loop) sweepIdle() {
	now := time.Now()
	for fd, ce := range l.conns {
		if ce.c.IsIdle(now) {
			l.closeConn(fd)
			continue
		}
		ce.c.Compact()
	}
}

func (l *Loop) closeConn(fd int) {
	_ = unix.Close(fd)
	if _, ok := l.conns[fd]; ok && l.metrics != nil {
		l.metrics.ConnectionClosed()
	}
	delete(l.conns, fd)
}

func (l *Loop) closeAll() error {
	for fd := range l.conns {
		l.closeConn(fd)
	}
	for _, lis := range l.listeners {
		_ = lis.close()
	}
	return nil
}

func isAgain(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
