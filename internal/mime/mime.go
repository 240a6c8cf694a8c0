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

// Package mime is a small extension-to-content-type lookup table, plus the
// inline/attachment disposition families used by the GET handler.
package mime

import "strings"

var byExtension = map[string]string{
	".html": "text/html", ".htm": "text/html", ".css": "text/css",
	".js": "application/javascript", ".json": "application/json",
	".txt": "text/plain", ".xml": "application/xml",
	".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg",
	".gif": "image/gif", ".svg": "image/svg+xml", ".ico": "image/x-icon",
	".pdf": "application/pdf",
	".zip": "application/zip", ".gz": "application/gzip",
	".mp4": "video/mp4", ".mp3": "audio/mpeg",
	".woff": "font/woff", ".woff2": "font/woff2",
}

// TypeForExtension returns the content-type for an extension (dot included,
// e.g. ".html"), defaulting to application/octet-stream.
func TypeForExtension(ext string) string {
	if ct, ok := byExtension[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// TypeForPath extracts the extension from path and resolves its type.
func TypeForPath(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx == -1 {
		return "application/octet-stream"
	}
	return TypeForExtension(path[idx:])
}

var inlineFamilies = []string{"text/", "image/", "application/pdf", "application/json", "application/javascript"}

// IsInlineDisposition reports whether contentType belongs to a family the
// GET handler serves with Content-Disposition: inline rather than
// attachment.
func IsInlineDisposition(contentType string) bool {
	for _, family := range inlineFamilies {
		if strings.HasPrefix(contentType, family) {
			return true
		}
	}
	return false
}
