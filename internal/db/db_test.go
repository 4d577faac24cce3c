package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type txState struct {
	commits     int64
	rollbacks   int64
	failCommits int64
	commitCalls int64
}

type fakeDriver struct{ state *txState }

func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{state: d.state}, nil
}

type fakeConn struct{ state *txState }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{}, nil }
func (c *fakeConn) Close() error                              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)                 { return &fakeTx{state: c.state}, nil }

func (c *fakeConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return &fakeTx{state: c.state}, nil
}

type fakeTx struct{ state *txState }

func (t *fakeTx) Commit() error {
	call := atomic.AddInt64(&t.state.commitCalls, 1)
	if call <= t.state.failCommits {
		return &pq.Error{Code: "40001"}
	}
	atomic.AddInt64(&t.state.commits, 1)
	return nil
}

func (t *fakeTx) Rollback() error {
	atomic.AddInt64(&t.state.rollbacks, 1)
	return nil
}

type fakeStmt struct{}

func (s *fakeStmt) Close() error                                    { return nil }
func (s *fakeStmt) NumInput() int                                   { return -1 }
func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

var driverCounter uint64

func openFakeDB(t *testing.T, state *txState) *sqlx.DB {
	t.Helper()
	name := fmt.Sprintf("fake-%d", atomic.AddUint64(&driverCounter, 1))
	sql.Register(name, &fakeDriver{state: state})
	raw, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open fake db: %v", err)
	}
	return sqlx.NewDb(raw, name)
}

func TestWithTxCommits(t *testing.T) {
	state := &txState{}
	database := openFakeDB(t, state)
	defer database.Close()

	called := 0
	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		called++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 1 {
		t.Fatalf("expected one invocation, got %d", called)
	}
	if state.commits != 1 || state.rollbacks != 0 {
		t.Fatalf("expected 1 commit / 0 rollbacks, got %d / %d", state.commits, state.rollbacks)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	state := &txState{}
	database := openFakeDB(t, state)
	defer database.Close()

	boom := errors.New("boom")
	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if state.commits != 0 || state.rollbacks != 1 {
		t.Fatalf("expected 0 commits / 1 rollback, got %d / %d", state.commits, state.rollbacks)
	}
}

func TestWithTxRetriesSerializationFailure(t *testing.T) {
	state := &txState{failCommits: 2}
	database := openFakeDB(t, state)
	defer database.Close()

	attempts := 0
	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if state.commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", state.commits)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatal("expected 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "40001"}) {
		t.Fatal("40001 is not a unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Fatal("plain errors are not unique violations")
	}
}
