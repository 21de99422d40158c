// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vmihailenco/msgpack"
	_ "modernc.org/sqlite"
)

const sqliteFile = "vdb.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	meta TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entities (
	collection TEXT NOT NULL,
	pk TEXT NOT NULL,
	ts INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (collection, pk)
);`

func init() {
	Register("sqlite", NewSQLiteStore)
}

// SQLiteStore persists the catalog as json and rows as msgpack blobs.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataDir string) (Store, error) {
	if dataDir == "" {
		return nil, errors.New("sqlite store needs a data directory")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "create data directory")
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, sqliteFile))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create tables")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveCollection(ctx context.Context, meta *CollectionMeta) error {
	data, err := vjson.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "marshal collection meta")
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO collections (name, meta) VALUES (?, ?)`,
		meta.Schema.CollectionName, string(data))
	return errors.Wrap(err, "save collection")
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, name string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE collection = ?`, name); err != nil {
			return errors.Wrap(err, "delete entities")
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
		return errors.Wrap(err, "delete collection")
	})
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]*CollectionMeta, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT meta FROM collections ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "query collections")
	}
	defer rows.Close()

	var metas []*CollectionMeta
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, errors.Wrap(err, "scan collection")
		}
		meta := &CollectionMeta{}
		if err := vjson.Unmarshal([]byte(text), meta); err != nil {
			return nil, errors.Wrap(err, "unmarshal collection meta")
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func (s *SQLiteStore) PutRows(ctx context.Context, collection string, records []*Record) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO entities (collection, pk, ts, payload) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "prepare insert")
		}
		defer stmt.Close()
		for _, r := range records {
			payload, err := msgpack.Marshal(r)
			if err != nil {
				return errors.Wrapf(err, "encode row %s", r.Key)
			}
			if _, err := stmt.ExecContext(ctx, collection, r.Key, int64(r.Ts), payload); err != nil {
				return errors.Wrapf(err, "insert row %s", r.Key)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteRows(ctx context.Context, collection string, keys []string) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM entities WHERE collection = ? AND pk = ?`)
		if err != nil {
			return errors.Wrap(err, "prepare delete")
		}
		defer stmt.Close()
		for _, k := range keys {
			if _, err := stmt.ExecContext(ctx, collection, k); err != nil {
				return errors.Wrapf(err, "delete row %s", k)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ScanRows(ctx context.Context, collection string, fn func(*Record) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM entities WHERE collection = ? ORDER BY pk`, collection)
	if err != nil {
		return errors.Wrap(err, "query entities")
	}
	var records []*Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan entity")
		}
		r := &Record{}
		if err := msgpack.Unmarshal(payload, r); err != nil {
			rows.Close()
			return errors.Wrap(err, "decode entity")
		}
		records = append(records, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return errors.Wrap(err, "iterate entities")
	}

	// the single connection is released before fn runs so it may write
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
