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

package request

import (
	"bytes"
	"strconv"
)

// DecodeChunked consumes the chunked transfer-coding grammar starting at
// buf[start:]. It returns the decoded payload, the number of input bytes
// consumed (including the terminating 0-chunk and its CRLFCRLF), and
// complete=false if buf does not yet hold the whole body. maxSize bounds
// the decoded total to enforce client_max_body_size without needing to
// know the final size in advance.
func DecodeChunked(buf []byte, start int, maxSize int64) (body []byte, consumed int, complete bool, err error) {
	var out []byte
	pos := start

	for {
		lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
		if lineEnd == -1 {
			return nil, 0, false, nil
		}
		sizeLine := buf[pos : pos+lineEnd]
		if idx := bytes.IndexByte(sizeLine, ';'); idx != -1 {
			sizeLine = sizeLine[:idx]
		}
		size, convErr := strconv.ParseInt(string(sizeLine), 16, 64)
		if convErr != nil || size < 0 {
			return nil, 0, false, &ParseError{Status: 400, Message: "invalid chunk size"}
		}
		pos += lineEnd + 2

		if size == 0 {
			// Trailer section: consume header lines (if any) up to the
			// terminating blank line. Trailers are discarded.
			trailerEnd := bytes.Index(buf[pos:], []byte("\r\n"))
			if trailerEnd == -1 {
				return nil, 0, false, nil
			}
			for trailerEnd != 0 {
				pos += trailerEnd + 2
				trailerEnd = bytes.Index(buf[pos:], []byte("\r\n"))
				if trailerEnd == -1 {
					return nil, 0, false, nil
				}
			}
			pos += 2 // final CRLF
			return out, pos - start, true, nil
		}

		if maxSize > 0 && int64(len(out))+size > maxSize {
			return nil, 0, false, &ParseError{Status: 413, Message: "chunked body exceeds client_max_body_size"}
		}

		if pos+int(size)+2 > len(buf) {
			return nil, 0, false, nil
		}
		if buf[pos+int(size)] != '\r' || buf[pos+int(size)+1] != '\n' {
			return nil, 0, false, &ParseError{Status: 400, Message: "malformed chunk terminator"}
		}

		out = append(out, buf[pos:pos+int(size)]...)
		pos += int(size) + 2
	}
}
