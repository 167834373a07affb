package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/deusflow/dealwatch/internal/news"
)

const archiveTable = "archived_articles"

var archiveColumns = []string{"title", "link", "pub_date", "description", "source_id", "image_url"}

// PostgresArchive stores articles in a PostgreSQL table with a unique link
// column.
type PostgresArchive struct {
	db  *sql.DB
	psq sq.StatementBuilderType
}

// NewPostgresArchive opens the database, verifies the connection and makes
// sure the schema exists.
func NewPostgresArchive(ctx context.Context, connectionString string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pa := NewPostgresArchiveFromDB(db)
	if err := pa.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return pa, nil
}

// NewPostgresArchiveFromDB wraps an open handle without touching the schema.
func NewPostgresArchiveFromDB(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{
		db:  db,
		psq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (pa *PostgresArchive) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_articles (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL UNIQUE,
		pub_date TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		source_id TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		archived_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_archived_articles_archived_at ON archived_articles(archived_at);
	`

	if _, err := pa.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (pa *PostgresArchive) selectQuery() sq.SelectBuilder {
	return pa.psq.Select(archiveColumns...).From(archiveTable).OrderBy("id ASC")
}

// insertQuery builds one multi-row insert. Articles without a link are
// skipped; a link already present is left untouched.
func (pa *PostgresArchive) insertQuery(articles []news.Article) (sq.InsertBuilder, int) {
	q := pa.psq.Insert(archiveTable).Columns(archiveColumns...)
	rows := 0
	for _, a := range articles {
		if strings.TrimSpace(a.Link) == "" {
			continue
		}
		q = q.Values(a.Title, a.Link, a.PubDate, a.Description, a.SourceID, a.ImageURL)
		rows++
	}
	return q.Suffix("ON CONFLICT (link) DO NOTHING"), rows
}

func (pa *PostgresArchive) ReadAll(ctx context.Context) ([]news.Article, error) {
	query, args, err := pa.selectQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: build select: %v", news.ErrArchiveRead, err)
	}

	rows, err := pa.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query archive: %v", news.ErrArchiveRead, err)
	}
	defer rows.Close()

	var out []news.Article
	for rows.Next() {
		var a news.Article
		if err := rows.Scan(&a.Title, &a.Link, &a.PubDate, &a.Description, &a.SourceID, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("%w: scan article: %v", news.ErrArchiveRead, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows iteration: %v", news.ErrArchiveRead, err)
	}
	return out, nil
}

func (pa *PostgresArchive) Append(ctx context.Context, articles []news.Article) (int, error) {
	q, n := pa.insertQuery(articles)
	if n == 0 {
		return 0, nil
	}
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: build insert: %v", news.ErrArchivePersist, err)
	}

	res, err := pa.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: insert articles: %v", news.ErrArchivePersist, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return n, nil
	}
	return int(affected), nil
}

func (pa *PostgresArchive) Close() error {
	return pa.db.Close()
}
