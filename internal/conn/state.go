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

package conn

// ClientState is the connection's overall lifecycle state.
type ClientState int

const (
	StateReading ClientState = iota
	StateProcessing
	StateWriting
	StateDisconnected
)

func (s ClientState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateProcessing:
		return "processing"
	case StateWriting:
		return "writing"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// HeaderPhase is the sub-state of header/body assembly while StateReading.
type HeaderPhase int

const (
	HeaderIncomplete HeaderPhase = iota
	HeaderComplete
	BodyReceiving
	RequestComplete
)

func (p HeaderPhase) String() string {
	switch p {
	case HeaderIncomplete:
		return "header-incomplete"
	case HeaderComplete:
		return "header-complete"
	case BodyReceiving:
		return "body-receiving"
	case RequestComplete:
		return "request-complete"
	default:
		return "unknown"
	}
}
