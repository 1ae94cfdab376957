package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	_ "github.com/mattn/go-sqlite3"

	"github.com/chative-router/server/internal/pipeline/model"
	logx "github.com/chative-router/server/pkg/logger"
)

const createDocumentsSQL = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	embedding TEXT NOT NULL,
	PRIMARY KEY (collection, id)
)`

// SqliteDocumentStore persists documents and embeddings in a single SQLite file.
type SqliteDocumentStore struct {
	db  *sql.DB
	emb embedding.Embedder
}

// OpenSqliteDocumentStore opens (creating when needed) the database at path.
func OpenSqliteDocumentStore(ctx context.Context, path string, emb embedding.Embedder) (*SqliteDocumentStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, createDocumentsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	logx.Debug().Str("path", path).Msg("sqlite document store opened")
	return &SqliteDocumentStore{db: db, emb: emb}, nil
}

func (s *SqliteDocumentStore) Close() error {
	return s.db.Close()
}

func (s *SqliteDocumentStore) Exists(ctx context.Context, collection string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE collection = ? LIMIT 1`, collection).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", collection, err)
	}
	return true, nil
}

func (s *SqliteDocumentStore) Put(ctx context.Context, collection string, docs []*schema.Document) error {
	stored, err := embedDocuments(ctx, s.emb, docs)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (collection, id, content, metadata, embedding)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection, id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata, embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range stored {
		meta, err := json.Marshal(d.MetaData)
		if err != nil {
			return fmt.Errorf("marshal metadata %s: %w", d.ID, err)
		}
		vec, err := json.Marshal(d.Vector)
		if err != nil {
			return fmt.Errorf("marshal embedding %s: %w", d.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, d.ID, d.Content, string(meta), string(vec)); err != nil {
			return fmt.Errorf("insert document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SqliteDocumentStore) Query(ctx context.Context, collection string, text string, k int) ([]*schema.Document, error) {
	if k <= 0 {
		return []*schema.Document{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, embedding FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []storedDocument
	for rows.Next() {
		var d storedDocument
		var meta, vec string
		if err := rows.Scan(&d.ID, &d.Content, &meta, &vec); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &d.MetaData); err != nil {
			return nil, fmt.Errorf("unmarshal metadata %s: %w", d.ID, err)
		}
		if err := json.Unmarshal([]byte(vec), &d.Vector); err != nil {
			return nil, fmt.Errorf("unmarshal embedding %s: %w", d.ID, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	if len(docs) == 0 {
		return []*schema.Document{}, nil
	}

	vec, err := embedQuery(ctx, s.emb, text)
	if err != nil {
		return nil, err
	}
	return rank(docs, vec, k), nil
}

var _ model.DocumentStore = (*SqliteDocumentStore)(nil)
