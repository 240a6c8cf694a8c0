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

package cgi

import (
	"strconv"
	"strings"

	"github.com/nabbar/webserv/config"
	"github.com/nabbar/webserv/internal/request"
)

// buildEnv constructs the RFC 3875 environment for one CGI invocation.
// scriptName is the URI path to the script; pathInfo is whatever of the
// request path follows it for prefix-style locations.
func buildEnv(script, scriptName, pathInfo string, req *request.Request, srv *config.ServerContext, loc *config.LocationContext) []string {
	host, port := serverIdentity(srv)

	env := []string{
		"GATEWAY_INTERFACE=CGI/1.1",
		"SERVER_PROTOCOL=HTTP/1.1",
		"SERVER_SOFTWARE=webserv",
		"SERVER_NAME=" + host,
		"SERVER_PORT=" + strconv.Itoa(port),
		"REQUEST_METHOD=" + req.Method,
		"SCRIPT_FILENAME=" + script,
		"SCRIPT_NAME=" + scriptName,
		"PATH_INFO=" + pathInfo,
		"QUERY_STRING=" + req.RawQuery,
		"REDIRECT_STATUS=200",
	}

	if cl, ok := req.Headers.Get("Content-Length"); ok {
		env = append(env, "CONTENT_LENGTH="+cl)
	} else if req.ContentLength > 0 {
		env = append(env, "CONTENT_LENGTH="+strconv.FormatInt(req.ContentLength, 10))
	}

	if ct, ok := req.Headers.Get("Content-Type"); ok {
		env = append(env, "CONTENT_TYPE="+ct)
	}

	for name, value := range req.Headers {
		env = append(env, "HTTP_"+headerEnvName(name)+"="+value)
	}

	return env
}

func headerEnvName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func serverIdentity(srv *config.ServerContext) (string, int) {
	if srv == nil {
		return "localhost", 80
	}

	host := "localhost"
	if srv.ServerName != nil {
		host = *srv.ServerName
	}

	port := 80
	if len(srv.Listens) > 0 {
		port = srv.Listens[0].Port
	}

	return host, port
}

func splitScriptPath(scriptPath, requestPath string) (scriptName, pathInfo string) {
	if strings.HasSuffix(scriptPath, "/") || !strings.HasPrefix(requestPath, scriptPath) {
		return requestPath, ""
	}
	return scriptPath, requestPath[len(scriptPath):]
}
