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

// Package multipart decodes multipart/form-data bodies for handlers that
// choose to accept file uploads that way instead of a raw POST body. It is
// a thin, allocation-light wrapper: no third-party multipart decoder
// exists in the retrieved dependency pack, so this is one of the few
// places the standard library's mime/multipart is used directly.
package multipart

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
)

// Part is one decoded section of a multipart/form-data body.
type Part struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
}

// Boundary extracts the boundary parameter from a Content-Type header
// value, or ok=false if the header isn't multipart/form-data.
func Boundary(contentType string) (boundary string, ok bool) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return "", false
	}
	b, has := params["boundary"]
	return b, has
}

// Parse splits body into its constituent parts.
func Parse(body []byte, boundary string) ([]Part, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)

	var parts []Part
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		data, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}

		parts = append(parts, Part{
			Name:        p.FormName(),
			Filename:    p.FileName(),
			ContentType: p.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	return parts, nil
}
