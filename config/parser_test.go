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

import "testing"

func TestParse_MinimalConfig(t *testing.T) {
	h, err := Parse(`
http {
    server {
        listen 8080;
        server_name example.com;
        root /var/www;

        location / {
            index index.html;
        }
    }
}
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(h.Servers))
	}
	srv := h.Servers[0]
	if len(srv.Listens) != 1 || srv.Listens[0].Port != 8080 {
		t.Fatalf("unexpected listens: %+v", srv.Listens)
	}
	if srv.Root == nil || *srv.Root != "/var/www" {
		t.Fatalf("unexpected root: %+v", srv.Root)
	}
	loc := srv.Locations[0]
	if loc.Root == nil || *loc.Root != "/var/www" {
		t.Fatalf("expected location to inherit root from server, got %+v", loc.Root)
	}
	if loc.Index == nil || *loc.Index != "index.html" {
		t.Fatalf("unexpected index: %+v", loc.Index)
	}
}

func TestParse_MissingHttpBlock(t *testing.T) {
	_, err := Parse(`server { listen 80; }`)
	if err == nil {
		t.Fatal("expected error for missing http block")
	}
}

func TestParse_DuplicateHttpBlock(t *testing.T) {
	_, err := Parse(`http { server { listen 80; } } http { server { listen 81; } }`)
	if err == nil {
		t.Fatal("expected error for duplicate http block")
	}
}

func TestParse_RootAliasMutuallyExclusive(t *testing.T) {
	_, err := Parse(`
http {
    server {
        listen 80;
        location / {
            root /var/www;
            alias /var/alt;
        }
    }
}
`)
	if err == nil {
		t.Fatal("expected error for root+alias in same location")
	}
}

func TestParse_LimitExceptRequiresDenyAll(t *testing.T) {
	_, err := Parse(`
http {
    server {
        listen 80;
        location / {
            limit_except GET {
            }
        }
    }
}
`)
	if err == nil {
		t.Fatal("expected error for limit_except without deny all")
	}
}

func TestParse_DirectiveNotAllowedInContext(t *testing.T) {
	_, err := Parse(`
http {
    cgi_pass /usr/bin/php-cgi;
    server {
        listen 80;
    }
}
`)
	if err == nil {
		t.Fatal("expected error for cgi_pass in http context")
	}
}

func TestParse_DuplicateDirective(t *testing.T) {
	_, err := Parse(`
http {
    server {
        listen 80;
        root /a;
        root /b;
    }
}
`)
	if err == nil {
		t.Fatal("expected error for duplicate root directive")
	}
}

func TestParse_ErrorPageMultipleCodes(t *testing.T) {
	h, err := Parse(`
http {
    server {
        listen 80;
        error_page 404 500 502 /errors/generic.html;
    }
}
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ep := h.Servers[0].ErrorPages
	for _, code := range []int{404, 500, 502} {
		if ep[code] != "/errors/generic.html" {
			t.Errorf("expected error page for %d, got %q", code, ep[code])
		}
	}
}

func TestParseListenAddress(t *testing.T) {
	cases := []struct {
		in       string
		wantHost string
		wantPort int
	}{
		{"8080", "0.0.0.0", 8080},
		{"127.0.0.1:8080", "127.0.0.1", 8080},
		{"127.0.0.1", "127.0.0.1", 80},
		{"a.b.c.d:xyz", "a.b.c.d", 0},
	}
	for _, c := range cases {
		host, port := parseListenAddress(c.in)
		if host != c.wantHost || port != c.wantPort {
			t.Errorf("parseListenAddress(%q) = (%q, %d), want (%q, %d)", c.in, host, port, c.wantHost, c.wantPort)
		}
	}
}

func TestParse_InvalidListenPortRejectedByValidate(t *testing.T) {
	_, err := Parse(`
http {
    server {
        listen a.b.c.d:xyz;
    }
}
`)
	if err == nil {
		t.Fatal("expected validation error for port 0 listen")
	}
}

func TestParseBodySize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1024", 1024, true},
		{"10M", 10 << 20, true},
		{"2G", 2 << 30, true},
		{"5k", 5 << 10, true},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseBodySize(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("parseBodySize(%q) = (%d, %v), want (%d, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
