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

package errors

import "strings"

type ers struct {
	c CodeError
	m string
	p []error
}

func (e *ers) Error() string {
	if len(e.p) == 0 {
		return e.m
	}

	var sb strings.Builder
	sb.WriteString(e.m)
	for _, p := range e.p {
		sb.WriteString(": ")
		sb.WriteString(p.Error())
	}
	return sb.String()
}

func (e *ers) Code() CodeError { return e.c }

func (e *ers) IsCode(code CodeError) bool { return e.c == code }

func (e *ers) HasCode(code CodeError) bool {
	if e.c == code {
		return true
	}
	for _, p := range e.p {
		if er, ok := p.(Error); ok && er.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) ErrorParent(parent error) Error {
	if parent != nil {
		e.p = append(e.p, parent)
	}
	return e
}

func (e *ers) Parent() []error {
	return e.p
}

func (e *ers) Unwrap() []error {
	return e.p
}
