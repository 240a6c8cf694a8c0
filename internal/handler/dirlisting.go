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
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/response"
)

func autoindex(uriPath, dirPath string) *response.Response {
	entries, err := fsutil.ListDirectory(dirPath)
	if err != nil {
		return response.BuildError(500, nil, nil)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>Index of %s</title></head><body>\n", html.EscapeString(uriPath))
	fmt.Fprintf(&b, "<h1>Index of %s</h1>\n<ul>\n", html.EscapeString(uriPath))

	for _, e := range entries {
		name := e.Name
		if e.IsDir {
			name += "/"
		}
		fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`+"\n", html.EscapeString(name), html.EscapeString(name))
	}

	b.WriteString("</ul></body></html>")

	r := response.New(200)
	r.SetContentType("text/html")
	r.SetBody([]byte(b.String()))
	return r
}
