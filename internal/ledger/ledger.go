// Package ledger persists processed documents and their classified
// transactions.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/srimichael20/AutoClose-AI/pkg/repository"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Document is a processed document's ledger entry.
type Document struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"document_type"`
	RawContent   string    `json:"raw_content"`
	FilePath     string    `json:"file_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is a classified financial transaction tied to a document.
type Transaction struct {
	ID          int64     `json:"id"`
	DocumentID  string    `json:"document_id"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Amount      *float64  `json:"amount"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
	Reasoning   string    `json:"reasoning"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store reads and writes ledger records.
type Store interface {
	UpsertDocument(ctx context.Context, doc Document) error
	FindDocument(ctx context.Context, id string) (*Document, error)
	InsertTransaction(ctx context.Context, tx Transaction) (*Transaction, error)
	ListTransactions(ctx context.Context, documentID string) ([]Transaction, error)
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "ledger"),
	}
}

func (s *store) UpsertDocument(ctx context.Context, doc Document) error {
	q := `
		INSERT INTO documents(id, document_type, raw_content, file_path)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET document_type = EXCLUDED.document_type,
		    raw_content = EXCLUDED.raw_content,
		    file_path = EXCLUDED.file_path`

	if _, err := s.db.ExecContext(ctx, q, doc.ID, doc.DocumentType, doc.RawContent, doc.FilePath); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	s.logger.Debug("document recorded", "document_id", doc.ID)
	return nil
}

func (s *store) FindDocument(ctx context.Context, id string) (*Document, error) {
	q := `
		SELECT id, document_type, raw_content, file_path, created_at
		FROM documents
		WHERE id = $1`

	doc, err := repository.QueryOne(ctx, s.db, q, []any{id}, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &doc, nil
}

func (s *store) InsertTransaction(ctx context.Context, tx Transaction) (*Transaction, error) {
	q := `
		INSERT INTO transactions(document_id, category, subcategory, amount, description, confidence, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, document_id, category, subcategory, amount, description, confidence, reasoning, created_at`

	args := []any{
		tx.DocumentID,
		tx.Category,
		tx.Subcategory,
		tx.Amount,
		tx.Description,
		tx.Confidence,
		tx.Reasoning,
	}

	inserted, err := repository.WithTx(ctx, s.db, func(dbTx *sql.Tx) (Transaction, error) {
		return repository.QueryOne(ctx, dbTx, q, args, scanTransaction)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	s.logger.Debug("transaction recorded",
		"document_id", inserted.DocumentID,
		"category", inserted.Category,
	)
	return &inserted, nil
}

func (s *store) ListTransactions(ctx context.Context, documentID string) ([]Transaction, error) {
	q := `
		SELECT id, document_id, category, subcategory, amount, description, confidence, reasoning, created_at
		FROM transactions
		WHERE document_id = $1
		ORDER BY created_at DESC`

	txs, err := repository.QueryMany(ctx, s.db, q, []any{documentID}, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(&d.ID, &d.DocumentType, &d.RawContent, &d.FilePath, &d.CreatedAt)
	return d, err
}

func scanTransaction(s repository.Scanner) (Transaction, error) {
	var t Transaction
	err := s.Scan(
		&t.ID,
		&t.DocumentID,
		&t.Category,
		&t.Subcategory,
		&t.Amount,
		&t.Description,
		&t.Confidence,
		&t.Reasoning,
		&t.CreatedAt,
	)
	return t, err
}
