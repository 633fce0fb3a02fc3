package mapping

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists mapping tables in sqlite, for hosts that ship large
// mapping sets and want to skip re-parsing TOML at every boot.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a mapping database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mapping: opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("mapping: setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS classes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mapped TEXT NOT NULL,
		obfuscated TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("mapping: creating classes table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS members (
		class_id INTEGER NOT NULL REFERENCES classes(id),
		kind TEXT NOT NULL CHECK (kind IN ('field', 'method')),
		mapped TEXT NOT NULL,
		obfuscated TEXT NOT NULL,
		descriptor TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("mapping: creating members table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put replaces the stored table with t, transactionally.
func (s *Store) Put(t *Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("mapping: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM members"); err != nil {
		return fmt.Errorf("mapping: clearing members: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM classes"); err != nil {
		return fmt.Errorf("mapping: clearing classes: %w", err)
	}

	for _, c := range t.Classes() {
		res, err := tx.Exec("INSERT INTO classes (mapped, obfuscated) VALUES (?, ?)", c.Mapped, c.Obfuscated)
		if err != nil {
			return fmt.Errorf("mapping: inserting class %s: %w", c.Mapped, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("mapping: class id: %w", err)
		}
		if err := insertMembers(tx, id, "field", c.Fields); err != nil {
			return err
		}
		if err := insertMembers(tx, id, "method", c.Methods); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertMembers(tx *sql.Tx, classID int64, kind string, members []Member) error {
	for _, m := range members {
		if _, err := tx.Exec(
			"INSERT INTO members (class_id, kind, mapped, obfuscated, descriptor) VALUES (?, ?, ?, ?, ?)",
			classID, kind, m.Mapped, m.Obfuscated, m.Descriptor,
		); err != nil {
			return fmt.Errorf("mapping: inserting %s %s: %w", kind, m.Mapped, err)
		}
	}
	return nil
}

// LoadTable reads the stored table back in insertion order.
func (s *Store) LoadTable() (*Table, error) {
	rows, err := s.db.Query("SELECT id, mapped, obfuscated FROM classes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("mapping: querying classes: %w", err)
	}
	defer rows.Close()

	var classes []Class
	var ids []int64
	for rows.Next() {
		var id int64
		var c Class
		if err := rows.Scan(&id, &c.Mapped, &c.Obfuscated); err != nil {
			return nil, fmt.Errorf("mapping: scanning class: %w", err)
		}
		classes = append(classes, c)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mapping: reading classes: %w", err)
	}

	for i, id := range ids {
		if err := s.loadMembers(id, &classes[i]); err != nil {
			return nil, err
		}
	}
	return NewTable(classes), nil
}

func (s *Store) loadMembers(classID int64, c *Class) error {
	rows, err := s.db.Query(
		"SELECT kind, mapped, obfuscated, descriptor FROM members WHERE class_id = ? ORDER BY rowid", classID)
	if err != nil {
		return fmt.Errorf("mapping: querying members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var m Member
		if err := rows.Scan(&kind, &m.Mapped, &m.Obfuscated, &m.Descriptor); err != nil {
			return fmt.Errorf("mapping: scanning member: %w", err)
		}
		if kind == "field" {
			c.Fields = append(c.Fields, m)
		} else {
			c.Methods = append(c.Methods, m)
		}
	}
	return rows.Err()
}
