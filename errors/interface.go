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

// Package errors provides numeric-coded errors with parent chaining for the
// webserv core: configuration failures, bind/listen failures and per-request
// internal faults all surface through the same Error interface.
package errors

// Error extends the standard error with a numeric code and a parent chain,
// so a low-level failure (a syscall error, a missing file) can be wrapped by
// the higher-level fault it caused without losing the original message.
type Error interface {
	error

	// Code returns the numeric code of this error (0 if none was set).
	Code() CodeError
	// IsCode reports whether this error's own code matches the given one.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any of its parents carries the
	// given code.
	HasCode(code CodeError) bool

	// ErrorParent wraps the given error as a parent of the receiver,
	// returning the receiver so call sites can chain:
	// ErrorBindFailure.ErrorParent(err).
	ErrorParent(parent error) Error
	// Parent returns the chain of parent errors, closest first.
	Parent() []error
}
