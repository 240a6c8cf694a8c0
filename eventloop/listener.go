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
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// listener is one bound, listening, non-blocking socket.
type listener struct {
	fd   int
	host string
	port int
}

// bindListener creates a non-blocking TCP listening socket for host:port.
// host may be empty or "0.0.0.0" for the wildcard address.
func bindListener(host string, port int) (*listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("eventloop: socket: %w", err)
	}

	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("eventloop: setsockopt: %w", err)
	}

	addr, err := resolveIPv4(host)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("eventloop: bind %s:%d: %w", host, port, err)
	}

	if err = unix.Listen(fd, 1024); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("eventloop: listen %s:%d: %w", host, port, err)
	}

	return &listener{fd: fd, host: host, port: port}, nil
}

func resolveIPv4(host string) ([4]byte, error) {
	var out [4]byte
	if host == "" || host == "0.0.0.0" || host == "*" {
		return out, nil
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil || len(ips) == 0 {
			return out, fmt.Errorf("eventloop: cannot resolve host %q", host)
		}
		ip = ips[0]
	}

	ip4 := ip.To4()
	if ip4 == nil {
		return out, fmt.Errorf("eventloop: host %q is not an IPv4 address", host)
	}
	copy(out[:], ip4)
	return out, nil
}

func (l *listener) accept() (int, [4]byte, int, error) {
	fd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK)
	if err != nil {
		return -1, [4]byte{}, 0, err
	}
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return fd, in4.Addr, in4.Port, nil
	}
	return fd, [4]byte{}, 0, nil
}

func (l *listener) close() error {
	return unix.Close(l.fd)
}
