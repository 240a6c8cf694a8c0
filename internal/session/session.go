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

// Package session is a file-backed session store: one YAML record per
// session id, evicted after 30 minutes of inactivity. It is a handler
// collaborator, not part of the request/response core.
package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// IdleTimeout is how long a session survives without a Lookup touching it.
const IdleTimeout = 30 * time.Minute

type record struct {
	User     string    `yaml:"user"`
	LastSeen time.Time `yaml:"last_seen"`
}

// Store persists sessions as one file per id under dir.
type Store struct {
	dir string
}

// NewStore creates the backing directory if needed and returns a Store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

// Create allocates a new session id for user and persists it.
func (s *Store) Create(user string) (string, error) {
	id := uuid.NewString()
	rec := record{User: user, LastSeen: time.Now()}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", err
	}
	if err = os.WriteFile(s.path(id), data, 0600); err != nil {
		return "", err
	}
	return id, nil
}

// Lookup returns the session's user and refreshes LastSeen, or ok=false if
// the session does not exist or has expired past IdleTimeout.
func (s *Store) Lookup(id string) (user string, ok bool) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return "", false
	}

	var rec record
	if err = yaml.Unmarshal(data, &rec); err != nil {
		return "", false
	}

	if time.Since(rec.LastSeen) > IdleTimeout {
		_ = os.Remove(s.path(id))
		return "", false
	}

	rec.LastSeen = time.Now()
	if refreshed, err := yaml.Marshal(rec); err == nil {
		_ = os.WriteFile(s.path(id), refreshed, 0600)
	}

	return rec.User, true
}

// Destroy removes a session unconditionally.
func (s *Store) Destroy(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
