package library

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattn/go-sqlite3"
)

// Database is a Store backed by a single SQLite file.
type Database struct {
	db   *sql.DB
	path string
	log  *slog.Logger

	insertBookStmt *sql.Stmt
	insertUserStmt *sql.Stmt
	insertLoanStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations. A file that is not a usable database is replaced by an
// empty one.
func NewDatabase(dbPath string, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	d := &Database{path: dbPath, log: logger}
	err := d.open()
	if isUnusableDB(err) {
		logger.Warn("database unreadable, starting empty", "path", dbPath, "error", err)
		if rmErr := os.Remove(dbPath); rmErr != nil {
			return nil, fmt.Errorf("reset database: %w", rmErr)
		}
		err = d.open()
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) open() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", d.path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return err
	}
	d.db = db
	if err := d.prepareStatements(); err != nil {
		d.Close()
		return err
	}
	return nil
}

func isUnusableDB(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrNotADB || sqliteErr.Code == sqlite3.ErrCorrupt
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.insertBookStmt, d.insertUserStmt, d.insertLoanStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		// position keeps catalog order across rewrites.
		`CREATE TABLE IF NOT EXISTS books (
            position INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1,
            borrowed_by TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            username TEXT PRIMARY KEY,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'reader'
        );`,
		`CREATE TABLE IF NOT EXISTS user_books (
            username TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            title TEXT NOT NULL,
            PRIMARY KEY (username, position)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.insertBookStmt, err = d.db.Prepare(`INSERT INTO books(position,title,author,available,borrowed_by) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.insertUserStmt, err = d.db.Prepare(`INSERT INTO users(username,password,role) VALUES(?,?,?)`); err != nil {
		return err
	}
	if d.insertLoanStmt, err = d.db.Prepare(`INSERT INTO user_books(username,position,title) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Store implementation
// ---------------------------------------------------------------------------

func (d *Database) LoadBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT title,author,available,COALESCE(borrowed_by,'') FROM books ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []bookRecord
	for rows.Next() {
		var (
			r         bookRecord
			available bool
			by        string
		)
		if err := rows.Scan(&r.Title, &r.Author, &available, &by); err != nil {
			return nil, err
		}
		r.Status = &available
		if by != "" {
			r.BorrowedBy = &by
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fromBookRecords(records), nil
}

// SaveBooks replaces the whole catalog in one transaction.
func (d *Database) SaveBooks(books []*Book) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM books`); err != nil {
		return err
	}
	stmt := tx.Stmt(d.insertBookStmt)
	for i, b := range books {
		var by sql.NullString
		if b.BorrowedBy != "" {
			by = sql.NullString{String: b.BorrowedBy, Valid: true}
		}
		if _, err := stmt.Exec(i, b.Title, b.Author, b.Available, by); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *Database) LoadUsers() (map[string]*User, error) {
	rows, err := d.db.Query(`SELECT username,password,role FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]userRecord)
	for rows.Next() {
		var (
			name string
			r    userRecord
		)
		if err := rows.Scan(&name, &r.Password, &r.Role); err != nil {
			return nil, err
		}
		records[name] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	loans, err := d.db.Query(`SELECT username,title FROM user_books ORDER BY username, position`)
	if err != nil {
		return nil, err
	}
	defer loans.Close()
	for loans.Next() {
		var name, title string
		if err := loans.Scan(&name, &title); err != nil {
			return nil, err
		}
		if r, ok := records[name]; ok {
			r.BorrowedBooks = append(r.BorrowedBooks, title)
			records[name] = r
		}
	}
	if err := loans.Err(); err != nil {
		return nil, err
	}
	return fromUserRecords(records), nil
}

// SaveUsers replaces all accounts and their borrowed titles in one transaction.
func (d *Database) SaveUsers(users map[string]*User) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_books`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM users`); err != nil {
		return err
	}
	userStmt, loanStmt := tx.Stmt(d.insertUserStmt), tx.Stmt(d.insertLoanStmt)
	for name, u := range users {
		if _, err := userStmt.Exec(name, u.Password, string(u.Role)); err != nil {
			return err
		}
		for i, title := range u.BorrowedBooks {
			if _, err := loanStmt.Exec(name, i, title); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
