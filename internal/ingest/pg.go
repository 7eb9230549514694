package ingest

import (
	"context"
	"time"

	"github.com/yangkidd/socialdw/internal/store"
)

// NewPgStore adapts the pgx-backed store to the pipeline's Store interface.
func NewPgStore(s *store.Store) Store {
	return pgStore{s: s}
}

type pgStore struct {
	s *store.Store
}

func (p pgStore) Begin(ctx context.Context) (Batch, error) {
	b, err := p.s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (p pgStore) LastSuccessfulUpload(ctx context.Context, filename, platform string) (time.Time, bool, error) {
	return p.s.LastSuccessfulUpload(ctx, filename, platform)
}

func (p pgStore) AppendUploadLog(ctx context.Context, e store.UploadLogEntry) error {
	return p.s.AppendUploadLog(ctx, e)
}
