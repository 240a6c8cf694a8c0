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
	"math/rand"
	"strings"
	"time"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
)

func (h *Handler) handlePost(req *request.Request, loc *config.LocationContext) *response.Response {
	if len(req.Body) == 0 {
		r := response.New(200)
		r.SetContentType("text/html")
		r.SetBody([]byte("<html><body><h1>empty POST</h1></body></html>"))
		return r
	}

	dir, err := resolvePath(loc, req.Path)
	if err != nil {
		return errorResponse(400, loc)
	}

	if !fsutil.Exists(dir) {
		if err = fsutil.Mkdir(dir, 0755); err != nil {
			return errorResponse(500, loc)
		}
	}

	filename := fmt.Sprintf("%d_%d.upload", time.Now().Unix(), rand.Intn(1_000_000))
	target := strings.TrimRight(dir, "/") + "/" + filename

	if err = fsutil.Write(target, req.Body); err != nil {
		return errorResponse(500, loc)
	}

	location := strings.TrimRight(req.Path, "/") + "/" + filename
	r := response.New(201)
	r.SetHeader("Location", location)
	return r
}
