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
	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/fsutil"
	"github.com/nabbar/webserv/internal/request"
	"github.com/nabbar/webserv/internal/response"
)

func (h *Handler) handleDelete(req *request.Request, loc *config.LocationContext) *response.Response {
	path, err := resolvePath(loc, req.Path)
	if err != nil {
		return errorResponse(400, loc)
	}

	if !fsutil.Exists(path) {
		return errorResponse(404, loc)
	}
	if fsutil.IsDirectory(path) {
		return errorResponse(403, loc)
	}

	if err = fsutil.Unlink(path); err != nil {
		return errorResponse(500, loc)
	}

	return response.New(200)
}
