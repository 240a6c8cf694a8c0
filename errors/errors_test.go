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

package errors_test

import (
	"errors"
	"testing"

	liberr "github.com/nabbar/webserv/errors"
)

func TestCodeError_DefaultMessage(t *testing.T) {
	e := liberr.ErrorBindFailure.Error(nil)
	if e.Code() != liberr.ErrorBindFailure {
		t.Fatalf("expected code %v, got %v", liberr.ErrorBindFailure, e.Code())
	}
	if e.Error() == "" {
		t.Fatal("expected a non-empty default message")
	}
}

func TestErrorParent_ChainsMessage(t *testing.T) {
	root := errors.New("bind: address already in use")
	e := liberr.ErrorBindFailure.ErrorParent(root)

	if !e.HasCode(liberr.ErrorBindFailure) {
		t.Fatal("expected HasCode to find own code")
	}
	if len(e.Parent()) != 1 {
		t.Fatalf("expected one parent, got %d", len(e.Parent()))
	}
	if e.Error() == "" {
		t.Fatal("expected composed error message")
	}
}

func TestIsCode_DoesNotMatchOtherCodes(t *testing.T) {
	e := liberr.ErrorCGITimeout.Error(nil)
	if e.IsCode(liberr.ErrorCGISpawn) {
		t.Fatal("IsCode should not match unrelated code")
	}
	if !e.IsCode(liberr.ErrorCGITimeout) {
		t.Fatal("IsCode should match its own code")
	}
}
