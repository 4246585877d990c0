package internal

import (
	"database/sql"
	"fmt"
	"strings"
)

// indexVersion is stored in PRAGMA user_version; an index written with
// another version is dropped and must be rebuilt with reindex
const indexVersion = 2

const indexSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	project       TEXT NOT NULL,
	session       TEXT NOT NULL,
	model         TEXT NOT NULL DEFAULT '',
	last_modified TEXT NOT NULL DEFAULT '',
	message_count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (project, session)
);
CREATE TABLE IF NOT EXISTS messages (
	project  TEXT NOT NULL,
	session  TEXT NOT NULL,
	position INTEGER NOT NULL,
	role     TEXT NOT NULL,
	content  TEXT NOT NULL,
	folded   TEXT NOT NULL,
	PRIMARY KEY (project, session, position)
);
CREATE INDEX IF NOT EXISTS idx_sessions_modified ON sessions(last_modified DESC);
CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role);
`

// HistoryIndex mirrors stored transcripts into SQLite for searches across
// sessions and projects. Session files stay authoritative; the index can be
// rebuilt from them at any time.
type HistoryIndex struct {
	db   *sql.DB
	path string
}

// IndexQuery filters a history search
type IndexQuery struct {
	Text    string
	Project string // empty searches every project
	Role    Role   // empty matches every role
	Limit   int
}

// IndexHit is one message matched by the index
type IndexHit struct {
	Project      string `json:"project" yaml:"project"`
	Session      string `json:"session" yaml:"session"`
	Position     int    `json:"position" yaml:"position"`
	Role         Role   `json:"role" yaml:"role"`
	Snippet      string `json:"snippet" yaml:"snippet"`
	LastModified string `json:"last_modified" yaml:"last_modified"`
}

// OpenHistoryIndex opens the index at path, creating the schema if needed
func OpenHistoryIndex(path string) (*HistoryIndex, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &IndexError{Op: "open", Err: err}
	}
	if err := migrateIndex(db); err != nil {
		db.Close()
		return nil, &IndexError{Op: "migrate", Err: err}
	}
	return &HistoryIndex{db: db, path: path}, nil
}

func migrateIndex(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version != indexVersion {
		var existing int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='messages'`).Scan(&existing); err != nil {
			return err
		}
		if existing > 0 {
			LogWarn("History index format changed; run reindex to restore cross-session search")
		}
		if _, err := db.Exec(`DROP TABLE IF EXISTS messages; DROP TABLE IF EXISTS sessions;`); err != nil {
			return err
		}
	}
	if _, err := db.Exec(indexSchema); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", indexVersion))
	return err
}

// foldCase lowercases rune by rune so that index matching agrees with
// SearchMessages; SQLite's lower() only folds ASCII
func foldCase(s string) string {
	return string(lowerRunes(s))
}

// Path returns the database location
func (x *HistoryIndex) Path() string {
	return x.path
}

// Close closes the database
func (x *HistoryIndex) Close() error {
	return x.db.Close()
}

func projectKey(project string) string {
	if project == "" {
		return DefaultProject
	}
	return project
}

// IndexSession replaces everything indexed for the session in one transaction
func (x *HistoryIndex) IndexSession(project string, sess *Session) error {
	project = projectKey(project)

	tx, err := x.db.Begin()
	if err != nil {
		return &IndexError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE project = ? AND session = ?`, project, sess.ID); err != nil {
		return &IndexError{Op: "delete messages", Err: err}
	}
	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO sessions (project, session, model, last_modified, message_count)
		VALUES (?, ?, ?, ?, ?)`,
		project, sess.ID, sess.Metadata.Model, sess.Metadata.LastModified, len(sess.Messages),
	); err != nil {
		return &IndexError{Op: "upsert session", Err: err}
	}

	stmt, err := tx.Prepare(`INSERT INTO messages (project, session, position, role, content, folded) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &IndexError{Op: "prepare", Err: err}
	}
	defer stmt.Close()

	for i, msg := range sess.Messages {
		if _, err := stmt.Exec(project, sess.ID, i, string(msg.Role), msg.Content, foldCase(msg.Content)); err != nil {
			return &IndexError{Op: "insert message", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &IndexError{Op: "commit", Err: err}
	}
	return nil
}

// Remove drops a session from the index
func (x *HistoryIndex) Remove(project, id string) error {
	project = projectKey(project)
	id = NormalizeSessionID(id)
	if _, err := x.db.Exec(`DELETE FROM messages WHERE project = ? AND session = ?`, project, id); err != nil {
		return &IndexError{Op: "remove", Err: err}
	}
	if _, err := x.db.Exec(`DELETE FROM sessions WHERE project = ? AND session = ?`, project, id); err != nil {
		return &IndexError{Op: "remove", Err: err}
	}
	return nil
}

// escapeLike escapes LIKE wildcards so the query is matched literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Search finds messages containing q.Text, newest sessions first and in
// transcript order within a session
func (x *HistoryIndex) Search(q IndexQuery) ([]IndexHit, error) {
	query := `
		SELECT m.project, m.session, m.position, m.role, m.content, s.last_modified
		FROM messages m
		JOIN sessions s ON s.project = m.project AND s.session = m.session
		WHERE m.folded LIKE '%' || ? || '%' ESCAPE '\'`
	args := []interface{}{escapeLike(foldCase(q.Text))}

	if q.Project != "" {
		query += ` AND m.project = ?`
		args = append(args, q.Project)
	}
	if q.Role != "" {
		query += ` AND m.role = ?`
		args = append(args, string(q.Role))
	}
	query += ` ORDER BY s.last_modified DESC, m.session DESC, m.position ASC`
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := x.db.Query(query, args...)
	if err != nil {
		return nil, &IndexError{Op: "search", Err: err}
	}
	defer rows.Close()

	hits := []IndexHit{}
	for rows.Next() {
		var hit IndexHit
		var role, content string
		if err := rows.Scan(&hit.Project, &hit.Session, &hit.Position, &role, &content, &hit.LastModified); err != nil {
			return nil, &IndexError{Op: "scan", Err: err}
		}
		hit.Role = Role(role)
		hit.Snippet = Snippet(content, q.Text)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &IndexError{Op: "rows", Err: err}
	}
	return hits, nil
}

// Projects lists projects that have indexed sessions
func (x *HistoryIndex) Projects() ([]string, error) {
	rows, err := x.db.Query(`SELECT DISTINCT project FROM sessions ORDER BY project`)
	if err != nil {
		return nil, &IndexError{Op: "projects", Err: err}
	}
	defer rows.Close()

	projects := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, &IndexError{Op: "scan", Err: err}
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Reindex clears the index and rebuilds it from every session file under
// the store root. Unreadable files are skipped. It returns the number of
// sessions indexed.
func (x *HistoryIndex) Reindex(store *Store) (int, error) {
	if _, err := x.db.Exec(`DELETE FROM messages; DELETE FROM sessions;`); err != nil {
		return 0, &IndexError{Op: "clear", Err: err}
	}

	projects, err := store.Projects()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, project := range projects {
		ids, err := store.List(project)
		if err != nil {
			LogWarn("Skipping project %s: %v", project, err)
			continue
		}
		for _, id := range ids {
			sess, err := store.Read(project, id)
			if err != nil {
				LogWarn("Skipping %s/%s: %v", project, id, err)
				continue
			}
			if err := x.IndexSession(project, sess); err != nil {
				return count, err
			}
			count++
		}
	}
	LogInfo("Indexed %d session(s) from %s", count, store.Root())
	return count, nil
}

// ColumnInfo describes one column of an index table
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// TableInfo describes one index table
type TableInfo struct {
	Name    string
	Rows    int
	Columns []ColumnInfo
}

// Describe reports the index tables with their row counts and schema
func (x *HistoryIndex) Describe() ([]TableInfo, error) {
	rows, err := x.db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, &IndexError{Op: "describe", Err: err}
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, &IndexError{Op: "describe", Err: err}
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &IndexError{Op: "describe", Err: err}
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		info := TableInfo{Name: name}
		// names come from sqlite_master, not user input
		if err := x.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&info.Rows); err != nil {
			return nil, &IndexError{Op: "count " + name, Err: err}
		}
		info.Columns, err = x.tableColumns(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, info)
	}
	return tables, nil
}

func (x *HistoryIndex) tableColumns(table string) ([]ColumnInfo, error) {
	rows, err := x.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, &IndexError{Op: "schema " + table, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			col          ColumnInfo
			cid          int
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, &IndexError{Op: "schema " + table, Err: err}
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
