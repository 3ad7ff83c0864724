// Package dbtest provides an in-memory stand-in for database.DB that only tracks
// transaction boundaries. Repositories under test are faked separately.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"wesee/internal/database"
)

var ErrNotSupported = errors.New("dbtest: statement execution not supported")

type FakeDB struct {
	mu sync.Mutex

	BeginErr  error
	CommitErr error
	PingErr   error

	Begins    int
	Commits   int
	Rollbacks int
}

var _ database.DB = (*FakeDB)(nil)

func (db *FakeDB) Ping(context.Context) error { return db.PingErr }
func (db *FakeDB) Close() error               { return nil }
func (db *FakeDB) SQLDB() *sql.DB             { return nil }

func (db *FakeDB) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrNotSupported
}

func (db *FakeDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, ErrNotSupported
}

func (db *FakeDB) QueryRow(context.Context, string, ...any) database.Row {
	return errRow{}
}

func (db *FakeDB) Begin(context.Context) (database.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.BeginErr != nil {
		return nil, db.BeginErr
	}
	db.Begins++
	return &FakeTx{db: db}, nil
}

func (db *FakeDB) Snapshot() (begins, commits, rollbacks int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.Begins, db.Commits, db.Rollbacks
}

type FakeTx struct {
	db   *FakeDB
	done bool
}

func (tx *FakeTx) Exec(context.Context, string, ...any) (int64, error) {
	return 0, ErrNotSupported
}

func (tx *FakeTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, ErrNotSupported
}

func (tx *FakeTx) QueryRow(context.Context, string, ...any) database.Row {
	return errRow{}
}

func (tx *FakeTx) Commit(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.db.CommitErr != nil {
		return tx.db.CommitErr
	}
	tx.done = true
	tx.db.Commits++
	return nil
}

func (tx *FakeTx) Rollback(context.Context) error {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true
	tx.db.Rollbacks++
	return nil
}

type errRow struct{}

func (errRow) Scan(...any) error { return ErrNotSupported }
