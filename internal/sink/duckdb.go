package sink

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/marcboeker/go-duckdb"
)

// DuckDB allows one database instance per file at a time, so all workers in
// a process share a single connector per path. Each sink still gets its own
// connection and appender; the connector is closed once the last sink using
// it closes.
var (
	connectorsMu sync.Mutex
	connectors   = map[string]*sharedConnector{}
)

type sharedConnector struct {
	path      string
	connector *duckdb.Connector
	refs      int
}

func acquireConnector(path string) (*sharedConnector, error) {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()

	if shared, ok := connectors[path]; ok {
		shared.refs++
		return shared, nil
	}
	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		return nil, fmt.Errorf("create duckdb connector %s: %w", path, err)
	}
	shared := &sharedConnector{path: path, connector: connector, refs: 1}
	connectors[path] = shared
	return shared, nil
}

func (s *sharedConnector) release() error {
	connectorsMu.Lock()
	defer connectorsMu.Unlock()

	s.refs--
	if s.refs > 0 {
		return nil
	}
	delete(connectors, s.path)
	if err := s.connector.Close(); err != nil {
		return fmt.Errorf("close duckdb connector %s: %w", s.path, err)
	}
	return nil
}

// duckdbSink appends records to a per-worker table in a shared DuckDB file.
// The appender keeps the hot path off database/sql, mirroring how batches
// are normally bulk-loaded into DuckDB.
type duckdbSink struct {
	table    string
	shared   *sharedConnector
	conn     driver.Conn
	appender *duckdb.Appender
}

func newDuckDBSink(dir string, workerID int) (*duckdbSink, error) {
	path := filepath.Join(dir, "audio_tokens.duckdb")
	table := fmt.Sprintf("audio_tokens_%d", workerID)

	shared, err := acquireConnector(path)
	if err != nil {
		return nil, err
	}

	conn, err := shared.connector.Connect(context.Background())
	if err != nil {
		shared.release()
		return nil, fmt.Errorf("connect duckdb %s: %w", path, err)
	}

	// DDL runs on the sink's own raw conn; the appender is created from the
	// same conn right after.
	createSQL := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s ("index" BIGINT, audio VARCHAR, tokens VARCHAR);`, table)
	execer, ok := conn.(driver.ExecerContext)
	if !ok {
		conn.Close()
		shared.release()
		return nil, fmt.Errorf("duckdb conn for %s does not support raw exec", path)
	}
	if _, err := execer.ExecContext(context.Background(), createSQL, nil); err != nil {
		conn.Close()
		shared.release()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	appender, err := duckdb.NewAppenderFromConn(conn, "", table)
	if err != nil {
		conn.Close()
		shared.release()
		return nil, fmt.Errorf("create appender for %s: %w", table, err)
	}
	return &duckdbSink{table: table, shared: shared, conn: conn, appender: appender}, nil
}

func (s *duckdbSink) AppendBatch(records []Record) error {
	for _, rec := range records {
		if err := s.appender.AppendRow(rec.Index, rec.Audio, rec.Tokens); err != nil {
			return fmt.Errorf("append record %d to %s: %w", rec.Index, s.table, err)
		}
	}
	if err := s.appender.Flush(); err != nil {
		return fmt.Errorf("flush appender %s: %w", s.table, err)
	}
	return nil
}

func (s *duckdbSink) Close() error {
	var errs []error
	if err := s.appender.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close appender %s: %w", s.table, err))
	}
	if err := s.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close duckdb conn %s: %w", s.table, err))
	}
	if err := s.shared.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
