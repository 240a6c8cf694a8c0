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

package config

// Cascade copies inherited directives from http down to server down to
// location, wherever the child left them unset (nil). error_page maps merge
// instead of replacing outright: a child's codes win, the parent's survive
// for codes the child never mentions. Cascade mutates h in place.
func Cascade(h *HttpContext) {
	for _, srv := range h.Servers {
		if srv.BodySize == nil {
			srv.BodySize = h.BodySize
		}
		if srv.Root == nil {
			srv.Root = h.Root
		}
		if srv.Index == nil {
			srv.Index = h.Index
		}
		srv.ErrorPages = srv.ErrorPages.merge(h.ErrorPages)

		for _, loc := range srv.Locations {
			if loc.BodySize == nil {
				loc.BodySize = srv.BodySize
			}
			if loc.Root == nil && loc.Alias == nil {
				loc.Root = srv.Root
			}
			if loc.Index == nil {
				loc.Index = srv.Index
			}
			if loc.Autoindex == nil {
				loc.Autoindex = srv.Autoindex
			}
			loc.ErrorPages = loc.ErrorPages.merge(srv.ErrorPages)
		}
	}
}
