package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	sessionExt = ".json"

	// Preview strings shown in session listings
	previewEmpty       = "Empty session"
	previewUnavailable = "Unable to load preview"
	previewWidth       = 50
)

// Store maps project namespaces to directories of session files:
// <root>/<project>/<id>.json
type Store struct {
	root  string
	index *HistoryIndex
}

// SessionSummary is one entry of a listing with metadata
type SessionSummary struct {
	ID       string   `json:"id" yaml:"id"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Preview  string   `json:"preview" yaml:"preview"`
	Err      error    `json:"-" yaml:"-"`
}

// NewStore creates a store rooted at root
func NewStore(root string) *Store {
	return &Store{root: root}
}

// SetIndex attaches a history index that is refreshed on every write
func (s *Store) SetIndex(index *HistoryIndex) {
	s.index = index
}

// Index returns the attached history index, or nil
func (s *Store) Index() *HistoryIndex {
	return s.index
}

// Root returns the conversations root directory
func (s *Store) Root() string {
	return s.root
}

// ProjectDir returns the directory holding a project's sessions
func (s *Store) ProjectDir(project string) string {
	if project == "" {
		project = DefaultProject
	}
	return filepath.Join(s.root, project)
}

// EnsureProject creates the project directory if needed
func (s *Store) EnsureProject(project string) (string, error) {
	dir := s.ProjectDir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Path: dir, Op: "mkdir", Err: err}
	}
	return dir, nil
}

// SessionPath returns the file path for a session identifier
func (s *Store) SessionPath(project, id string) string {
	return filepath.Join(s.ProjectDir(project), NormalizeSessionID(id)+sessionExt)
}

// NormalizeSessionID strips a trailing ".json" so that both "name" and
// "name.json" address the same session
func NormalizeSessionID(id string) string {
	return strings.TrimSuffix(id, sessionExt)
}

// ValidateSessionName rejects names that cannot be used as a single file name
func ValidateSessionName(name string) error {
	name = NormalizeSessionID(name)
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return &ValidationError{Field: "session name", Value: name}
	}
	return nil
}

// Exists reports whether the session file is present
func (s *Store) Exists(project, id string) bool {
	_, err := os.Stat(s.SessionPath(project, id))
	return err == nil
}

// List returns session identifiers newest first by file name
func (s *Store) List(project string) ([]string, error) {
	dir := s.ProjectDir(project)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &StorageError{Path: dir, Op: "list", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionExt) {
			continue
		}
		ids = append(ids, NormalizeSessionID(entry.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// ListWithMetadata reads every session in the project and returns summaries
// ordered by last-modified time, newest first. Unreadable files are listed
// with empty metadata and a placeholder preview.
func (s *Store) ListWithMetadata(project string) ([]SessionSummary, error) {
	ids, err := s.List(project)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Read(project, id)
		if err != nil {
			LogDebug("Listing %s without metadata: %v", id, err)
			summaries = append(summaries, SessionSummary{
				ID:      id,
				Preview: previewUnavailable,
				Err:     err,
			})
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:       id,
			Metadata: sess.Metadata,
			Preview:  sessionPreview(sess.Messages),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Metadata.LastModified > summaries[j].Metadata.LastModified
	})
	return summaries, nil
}

// sessionPreview summarizes the last message of a transcript
func sessionPreview(messages []Message) string {
	if len(messages) == 0 {
		return previewEmpty
	}
	content := messages[len(messages)-1].Content
	runes := []rune(content)
	if len(runes) > previewWidth {
		content = string(runes[:previewWidth]) + "..."
	}
	return fmt.Sprintf("Last: %q", content)
}

// Read loads and validates a session file
func (s *Store) Read(project, id string) (*Session, error) {
	if err := ValidateSessionName(id); err != nil {
		return nil, err
	}
	path := s.SessionPath(project, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, path)
		}
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	if err := checkDocument(data); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := sess.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	sess.ID = NormalizeSessionID(id)
	if sess.Messages == nil {
		sess.Messages = []Message{}
	}
	return &sess, nil
}

// checkDocument requires a JSON object carrying metadata and messages
func checkDocument(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("session document is not an object")
	}
	for _, key := range []string{"metadata", "messages"} {
		raw, ok := fields[key]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			return fmt.Errorf("session document has no %q", key)
		}
	}
	return nil
}

// Write replaces the session file with the full document
func (s *Store) Write(project string, sess *Session) error {
	if err := ValidateSessionName(sess.ID); err != nil {
		return err
	}
	if _, err := s.EnsureProject(project); err != nil {
		return err
	}

	data, err := encodeSession(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := s.SessionPath(project, sess.ID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	LogDebug("Saved session %s (%d messages)", path, len(sess.Messages))

	if s.index != nil {
		if err := s.index.IndexSession(project, sess); err != nil {
			LogWarn("Failed to index session %s: %v", sess.ID, err)
		}
	}
	return nil
}

// encodeSession renders the document with two-space indentation and without
// HTML escaping so that code in messages stays readable on disk
func encodeSession(sess *Session) ([]byte, error) {
	doc := *sess
	if doc.Messages == nil {
		doc.Messages = []Message{}
	}
	if doc.Metadata.ContextData == nil {
		doc.Metadata.ContextData = []ContextItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewSessionID allocates an identifier. An explicit name is used as given;
// otherwise the identifier is derived from now and suffixed when a session
// with the same second already exists.
func (s *Store) NewSessionID(project, name string, now time.Time) (string, error) {
	if name != "" {
		if err := ValidateSessionName(name); err != nil {
			return "", err
		}
		return NormalizeSessionID(name), nil
	}

	base := now.Format("20060102_150405")
	id := base
	for n := 2; s.Exists(project, id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id, nil
}

// Projects lists the project namespaces present under the root
func (s *Store) Projects() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &StorageError{Path: s.root, Op: "list", Err: err}
	}

	projects := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// Delete removes a session file and its index entry
func (s *Store) Delete(project, id string) error {
	if err := ValidateSessionName(id); err != nil {
		return err
	}
	path := s.SessionPath(project, id)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, path)
		}
		return &StorageError{Path: path, Op: "delete", Err: err}
	}
	if s.index != nil {
		if err := s.index.Remove(project, id); err != nil {
			LogWarn("Failed to remove %s from index: %v", id, err)
		}
	}
	return nil
}
