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
	"path/filepath"
	"strings"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/mime"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
)

func (h *Handler) handleGet(req *request.Request, loc *config.LocationContext) *response.Response {
	path, err := resolvePath(loc, req.Path)
	if err != nil {
		return errorResponse(400, loc)
	}

	if !fsutil.Exists(path) {
		return errorResponse(404, loc)
	}

	if fsutil.IsDirectory(path) {
		return h.handleGetDirectory(req, loc, path)
	}

	return serveFile(path)
}

func (h *Handler) handleGetDirectory(req *request.Request, loc *config.LocationContext, dirPath string) *response.Response {
	if !strings.HasSuffix(req.Path, "/") {
		r := response.New(301)
		r.SetHeader("Location", req.Path+"/")
		return r
	}

	if loc.Index != nil {
		indexPath := strings.TrimRight(dirPath, "/") + "/" + *loc.Index
		if fsutil.Exists(indexPath) && !fsutil.IsDirectory(indexPath) {
			return serveFile(indexPath)
		}
	}

	if loc.Autoindex != nil && *loc.Autoindex {
		return autoindex(req.Path, dirPath)
	}

	return errorResponse(404, loc)
}

func serveFile(path string) *response.Response {
	data, err := loadFile(path)
	if err != nil {
		return response.BuildError(500, nil, nil)
	}

	ct := mime.TypeForPath(path)
	r := response.New(200)
	r.SetContentType(ct)

	if mime.IsInlineDisposition(ct) {
		r.SetHeader("Content-Disposition", "inline")
	} else {
		r.SetHeader("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	}

	r.SetBody(data)
	return r
}
