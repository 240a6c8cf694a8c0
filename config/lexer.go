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

// token is one lexical unit: a bare word, or one of the block/terminator
// characters `{`, `}`, `;`. Line is the 1-based source line it started on.
type token struct {
	Value string
	Line  int
}

// tokenize strips `#` comments and whitespace, splitting the remainder into
// words and the three structural characters.
func tokenize(content string) []token {
	var (
		toks []token
		pos  int
		line = 1
		n    = len(content)
	)

	skip := func() {
		for pos < n {
			switch content[pos] {
			case '\n':
				line++
				pos++
			case ' ', '\t', '\r':
				pos++
			case '#':
				for pos < n && content[pos] != '\n' {
					pos++
				}
			default:
				return
			}
		}
	}

	for {
		skip()
		if pos >= n {
			break
		}

		startLine := line
		c := content[pos]

		if c == '{' || c == '}' || c == ';' {
			toks = append(toks, token{Value: string(c), Line: startLine})
			pos++
			continue
		}

		start := pos
		for pos < n {
			c = content[pos]
			if c == ' ' || c == '\t' || c == '\r' || c == '\n' ||
				c == '{' || c == '}' || c == ';' || c == '#' {
				break
			}
			pos++
		}
		toks = append(toks, token{Value: content[start:pos], Line: startLine})
	}

	return toks
}
