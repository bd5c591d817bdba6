// Package journal records every evaluated input of a session, together with
// a canonical CBOR snapshot of its result, in a SQL database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"helter/internal/builtins"
	"helter/internal/object"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var ErrUnknownScheme = errors.New("unknown journal scheme")

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("journal: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// Entry is one journaled evaluation.
type Entry struct {
	Session   string
	Seq       int64
	Input     string
	Output    string
	Snapshot  []byte
	CreatedAt time.Time
}

// Value decodes the entry's snapshot back into the plain tree produced by
// object.Export.
func (e Entry) Value() (any, error) {
	var v any
	if err := cborDecMode.Unmarshal(e.Snapshot, &v); err != nil {
		return nil, fmt.Errorf("decode snapshot %s/%d: %w", e.Session, e.Seq, err)
	}
	return v, nil
}

type Journal struct {
	db      *sql.DB
	driver  string
	session string

	mu  sync.Mutex
	seq int64
}

// driverFor splits a DSN into the database/sql driver name and the
// driver-specific data source:
//
//	sqlite:/path/to/file.db       (sqlite3: also accepted)
//	mysql:user:pass@tcp(host)/db  (parseTime is always switched on)
//	postgres://user@host/db       (postgresql:// also accepted)
func driverFor(dsn string) (driver, source string, err error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "sqlite3:"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite3:"), nil
	case strings.HasPrefix(dsn, "mysql:"):
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql:"))
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		// created_at is scanned into time.Time
		cfg.ParseTime = true
		return "mysql", cfg.FormatDSN(), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownScheme, dsn)
}

func schema(driver string) string {
	blob := "BLOB"
	if driver == "postgres" {
		blob = "BYTEA"
	}
	return `CREATE TABLE IF NOT EXISTS entries (
	session VARCHAR(64) NOT NULL,
	seq INTEGER NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	snapshot ` + blob + `,
	created_at TIMESTAMP NOT NULL
)`
}

// Open connects to dsn, creates the entries table when missing and starts a
// new session.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	driver, source, err := driverFor(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema(driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	j := &Journal{db: db, driver: driver, session: uuid.NewString()}
	slog.Debug("journal opened", slog.String("driver", driver), slog.String("session", j.session))
	return j, nil
}

func (j *Journal) Session() string { return j.session }

// Record appends one evaluation to the current session.
func (j *Journal) Record(ctx context.Context, input string, result object.Value) error {
	snapshot, err := cborEncMode.Marshal(object.Export(result, builtins.TypeKey))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seq := j.seq + 1
	_, err = j.db.ExecContext(ctx,
		j.rebind("INSERT INTO entries (session, seq, input, output, snapshot, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		j.session, seq, input, result.Inspect(), snapshot, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record entry %d: %w", seq, err)
	}
	j.seq = seq
	return nil
}

// Recent returns up to n of the session's latest entries, oldest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		j.rebind("SELECT session, seq, input, output, snapshot, created_at FROM entries WHERE session = ? ORDER BY seq DESC LIMIT ?"),
		j.session, n)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Session, &e.Seq, &e.Input, &e.Output, &e.Snapshot, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// rebind rewrites ? placeholders into the driver's own style.
func (j *Journal) rebind(query string) string {
	if j.driver != "postgres" {
		return query
	}
	var out strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			out.WriteString("$" + strconv.Itoa(n))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
