package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Luciangogogo/qualtrics-data-processor2026/pkg/models"
)

// The stub driver mimics the PostgreSQL transaction rules that matter for
// batch inserts: a failed statement puts the transaction in an aborted state
// where every later statement fails, and only ROLLBACK TO SAVEPOINT clears it.

type stubConn struct {
	failOnInsert map[int]bool
	insertCalls  int
	aborted      bool
	committed    bool
	statements   []string
}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return &stubStmt{conn: c, query: query}, nil
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) { return &stubTx{conn: c}, nil }

type stubTx struct{ conn *stubConn }

func (t *stubTx) Commit() error {
	if t.conn.aborted {
		return errors.New("commit resulted in rollback")
	}
	t.conn.committed = true
	return nil
}

func (t *stubTx) Rollback() error { return nil }

type stubStmt struct {
	conn  *stubConn
	query string
}

func (s *stubStmt) Close() error { return nil }

func (s *stubStmt) NumInput() int { return -1 }

func (s *stubStmt) Exec(args []driver.Value) (driver.Result, error) {
	c := s.conn
	c.statements = append(c.statements, s.query)

	switch {
	case strings.HasPrefix(s.query, "ROLLBACK TO SAVEPOINT"):
		c.aborted = false
		return driver.ResultNoRows, nil
	case strings.HasPrefix(s.query, "SAVEPOINT"), strings.HasPrefix(s.query, "RELEASE SAVEPOINT"):
		if c.aborted {
			return nil, errors.New("current transaction is aborted")
		}
		return driver.ResultNoRows, nil
	}

	if c.aborted {
		return nil, errors.New("current transaction is aborted, commands ignored until end of transaction block")
	}

	c.insertCalls++
	if c.failOnInsert[c.insertCalls] {
		c.aborted = true
		return nil, errors.New("invalid input value for row")
	}
	return driver.RowsAffected(1), nil
}

func (s *stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	return nil, errors.New("queries not supported")
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func openStubRepo(t *testing.T, name string, conn *stubConn) *PostgresRepository {
	t.Helper()

	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("opening stub database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db)
}

func makeResponses(n int) []*models.SurveyResponse {
	surveyUUID := uuid.New()
	responses := make([]*models.SurveyResponse, 0, n)
	for i := 0; i < n; i++ {
		responses = append(responses, &models.SurveyResponse{
			SurveyID: surveyUUID,
			Data:     models.ResponseRow{"Facility": "1"},
		})
	}
	return responses
}

func TestInsertResponses_RowFailureDoesNotLoseBatch(t *testing.T) {
	conn := &stubConn{failOnInsert: map[int]bool{2: true}}
	repo := openStubRepo(t, "stub-row-failure", conn)

	inserted, err := repo.InsertResponses(context.Background(), makeResponses(3))
	if err != nil {
		t.Fatalf("InsertResponses() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}
	if !conn.committed {
		t.Error("transaction not committed")
	}

	rollbacks := 0
	for _, stmt := range conn.statements {
		if strings.HasPrefix(stmt, "ROLLBACK TO SAVEPOINT") {
			rollbacks++
		}
	}
	if rollbacks != 1 {
		t.Errorf("rollback-to-savepoint count = %d, want 1", rollbacks)
	}
}

func TestInsertResponses_AllRowsSucceed(t *testing.T) {
	conn := &stubConn{}
	repo := openStubRepo(t, "stub-all-ok", conn)

	inserted, err := repo.InsertResponses(context.Background(), makeResponses(3))
	if err != nil {
		t.Fatalf("InsertResponses() error = %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted = %d, want 3", inserted)
	}
	if !conn.committed {
		t.Error("transaction not committed")
	}
}

func TestInsertResponses_Empty(t *testing.T) {
	conn := &stubConn{}
	repo := openStubRepo(t, "stub-empty", conn)

	inserted, err := repo.InsertResponses(context.Background(), nil)
	if err != nil {
		t.Fatalf("InsertResponses() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
	if conn.committed {
		t.Error("no transaction expected for empty batch")
	}
}
