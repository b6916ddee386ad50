// Package notes persists the per-session overlays the indexer itself does
// not derive: user-written titles/comments and project membership. Both
// stores are single JSON files with serialized access and atomic writes.
package notes

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Note is the user overlay for one session.
type Note struct {
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// Store holds session notes and project membership, keyed by session id.
type Store struct {
	path string

	mu       sync.Mutex
	notes    map[string]Note
	projects map[string]string // session id → project id
}

type storeFile struct {
	Notes    map[string]Note   `json:"notes,omitempty"`
	Projects map[string]string `json:"projects,omitempty"`
}

// Open loads the store at path. A missing or corrupt file is an empty store.
func Open(path string) *Store {
	s := &Store{
		path:     path,
		notes:    make(map[string]Note),
		projects: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return s
	}
	if f.Notes != nil {
		s.notes = f.Notes
	}
	if f.Projects != nil {
		s.projects = f.Projects
	}
	return s
}

// Note returns the overlay for a session id. Implements enrich.NoteLookup.
func (s *Store) Note(sessionID string) (title, comment string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[sessionID]
	return n.Title, n.Comment, ok
}

// SetNote stores an overlay and flushes. An empty note deletes the entry.
func (s *Store) SetNote(sessionID string, n Note) error {
	s.mu.Lock()
	if n == (Note{}) {
		delete(s.notes, sessionID)
	} else {
		s.notes[sessionID] = n
	}
	s.mu.Unlock()
	return s.flush()
}

// Project returns the project id a session belongs to.
func (s *Store) Project(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[sessionID]
	return p, ok
}

// SetProject assigns a session to a project and flushes. An empty project id
// removes the membership.
func (s *Store) SetProject(sessionID, projectID string) error {
	s.mu.Lock()
	if projectID == "" {
		delete(s.projects, sessionID)
	} else {
		s.projects[sessionID] = projectID
	}
	s.mu.Unlock()
	return s.flush()
}

// flush writes the store atomically using a temporary file and rename.
func (s *Store) flush() error {
	s.mu.Lock()
	f := storeFile{
		Notes:    make(map[string]Note, len(s.notes)),
		Projects: make(map[string]string, len(s.projects)),
	}
	for id, n := range s.notes {
		f.Notes[id] = n
	}
	for id, p := range s.projects {
		f.Projects[id] = p
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".notes-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}
