// Package pg implements vector.Index on PostgreSQL with the pgvector
// extension. Passages are stored with their scripture coordinates so the
// index can serve both similarity search and point lookup by verse.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	vedaerrors "github.com/sweetpotato0/vedabot/errors"
	"github.com/sweetpotato0/vedabot/vector"
)

// PGIndex implements vector.Index using PostgreSQL with pgvector
type PGIndex struct {
	db        *sql.DB
	dimension int
	tableName string
}

// PGConfig holds pgvector configuration
type PGConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int    // Embedding dimension
	TableName string // Table name (default: passages)
}

// DefaultPGConfig returns default pgvector configuration
func DefaultPGConfig() *PGConfig {
	return &PGConfig{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "123456",
		DBName:    "vedabot",
		SSLMode:   "disable",
		Dimension: 768,
		TableName: "passages",
	}
}

// NewPGIndex creates a new pgvector-based passage index
func NewPGIndex(config *PGConfig) (*PGIndex, error) {
	if config == nil {
		config = DefaultPGConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	idx := &PGIndex{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}

	if err := idx.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}

	return idx, nil
}

// setup initializes pgvector and creates necessary tables/indexes
func (s *PGIndex) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id SERIAL PRIMARY KEY,
		source VARCHAR(255) NOT NULL,
		book VARCHAR(255) NOT NULL,
		chapter INT NOT NULL,
		verse INT NOT NULL,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (book, chapter, verse)
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// AddPassage inserts or replaces one passage. Used by ingestion tooling,
// not the query path.
func (s *PGIndex) AddPassage(ctx context.Context, p vector.Passage, embedding []float32) error {
	if p.Book == "" {
		return fmt.Errorf("passage book cannot be empty")
	}
	if len(embedding) != s.dimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (source, book, chapter, verse, text, embedding)
	VALUES ($1, $2, $3, $4, $5, $6::vector)
	ON CONFLICT (book, chapter, verse) DO UPDATE SET
		source = EXCLUDED.source,
		text = EXCLUDED.text,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query, p.Source, p.Book, p.Chapter, p.Verse, p.Text, vectorToString(embedding))
	if err != nil {
		return fmt.Errorf("failed to add passage: %w", err)
	}
	return nil
}

// QueryNearest implements vector.Index. Results come back ordered by
// descending similarity; score is cosine similarity in [0, 1] for
// normalized embeddings.
func (s *PGIndex) QueryNearest(ctx context.Context, embedding []float32, topK int) ([]vector.Passage, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}
	if topK <= 0 {
		topK = 5
	}

	query := fmt.Sprintf(`
	SELECT source, book, chapter, verse, text, 1 - (embedding <=> $1::vector) AS score
	FROM %s
	ORDER BY embedding <=> $1::vector
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer rows.Close()

	passages := make([]vector.Passage, 0, topK)
	for rows.Next() {
		var p vector.Passage
		if err := rows.Scan(&p.Source, &p.Book, &p.Chapter, &p.Verse, &p.Text, &p.Score); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating passages: %w", err)
	}

	return passages, nil
}

// Fetch implements vector.Index point lookup by scripture coordinates.
func (s *PGIndex) Fetch(ctx context.Context, book string, chapter, verse int) (vector.Passage, bool, error) {
	query := fmt.Sprintf(`
	SELECT source, book, chapter, verse, text
	FROM %s
	WHERE book = $1 AND chapter = $2 AND verse = $3
	`, s.tableName)

	var p vector.Passage
	err := s.db.QueryRowContext(ctx, query, book, chapter, verse).Scan(&p.Source, &p.Book, &p.Chapter, &p.Verse, &p.Text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vector.Passage{}, false, nil
		}
		return vector.Passage{}, false, fmt.Errorf("failed to fetch passage: %w", err)
	}
	return p, true, nil
}

// Delete removes one passage by scripture coordinates.
func (s *PGIndex) Delete(ctx context.Context, book string, chapter, verse int) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE book = $1 AND chapter = $2 AND verse = $3", s.tableName)
	result, err := s.db.ExecContext(ctx, query, book, chapter, verse)
	if err != nil {
		return fmt.Errorf("failed to delete passage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("passage %s %d:%d: %w", book, chapter, verse, vedaerrors.ErrNotFound)
	}
	return nil
}

// Count returns the number of indexed passages
func (s *PGIndex) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (s *PGIndex) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
