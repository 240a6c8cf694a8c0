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

package handler

import (
	"errors"
	"strings"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
)

// errTraversal is returned by resolvePath for any request path that fails
// the traversal/control-byte vetting in §4.5.
var errTraversal = errors.New("path traversal rejected")

// resolvePath combines a location's root or alias with the request path.
// alias replaces the matched location prefix outright; root is prefixed
// onto the full request path.
func resolvePath(loc *config.LocationContext, reqPath string) (string, error) {
	if !fsutil.IsSafePath(reqPath) {
		return "", errTraversal
	}

	if loc.HasAlias() {
		suffix := strings.TrimPrefix(reqPath, loc.Path)
		return strings.TrimRight(*loc.Alias, "/") + "/" + strings.TrimLeft(suffix, "/"), nil
	}

	root := "/var/www"
	if loc.Root != nil {
		root = *loc.Root
	}
	return strings.TrimRight(root, "/") + reqPath, nil
}
