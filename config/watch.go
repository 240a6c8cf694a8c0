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

import (
	"github.com/fsnotify/fsnotify"

	liblog "github.com/nabbar/webserv/logger"
)

// Watcher reloads the configuration file whenever it changes on disk and
// hands the new, validated HttpContext to onReload. A parse failure on
// reload is logged and the previous configuration keeps serving — a bad
// edit never takes a running server down.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*HttpContext)
	log      liblog.Logger
	done     chan struct{}
}

// NewWatcher starts watching path's directory (editors rename-and-replace
// rather than write in place, which only fsnotify on the containing
// directory reliably catches).
func NewWatcher(path string, log liblog.Logger, onReload func(*HttpContext)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		onReload: onReload,
		log:      log,
		done:     make(chan struct{}),
	}

	if err = fw.Add(dirOf(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			h, err := ParseFile(w.path)
			if err != nil {
				w.log.Errorf("config reload failed, keeping previous configuration: %v", err)
				continue
			}
			w.log.Infof("configuration reloaded from %s", w.path)
			w.onReload(h)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnf("config watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher goroutine and releases the underlying inotify fd.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
