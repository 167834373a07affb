// Package storage implements the append-only article archive.
package storage

import (
	"context"

	"github.com/deusflow/dealwatch/internal/news"
)

// Archive is the persistent, append-only store of raw articles. Append never
// rewrites or deletes existing records; deciding which articles are new is
// the caller's job.
type Archive interface {
	// ReadAll returns every stored article in insertion order.
	ReadAll(ctx context.Context) ([]news.Article, error)
	// Append stores articles in order and returns how many were written.
	Append(ctx context.Context, articles []news.Article) (int, error)
	Close() error
}

// Nop is an Archive that stores nothing.
type Nop struct{}

func (Nop) ReadAll(context.Context) ([]news.Article, error)     { return nil, nil }
func (Nop) Append(context.Context, []news.Article) (int, error) { return 0, nil }
func (Nop) Close() error                                        { return nil }
