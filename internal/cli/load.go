package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/eunmann/tesv-save/internal/logctx"
	"github.com/eunmann/tesv-save/pkg/fileutil"
	"github.com/eunmann/tesv-save/pkg/humanfmt"
	"github.com/eunmann/tesv-save/pkg/logging"
	"github.com/eunmann/tesv-save/pkg/membudget"
	"github.com/eunmann/tesv-save/pkg/s3fetch"
)

// loadedSave holds a save's bytes until Close.
type loadedSave struct {
	Data    []byte
	release func() error
}

func (l *loadedSave) Close() error {
	return l.release()
}

// loader reads saves from local files (memory-mapped) or S3 (downloaded
// into budgeted memory).
type loader struct {
	budget *membudget.Budget

	mu     sync.Mutex
	client *s3fetch.Client
}

func newLoader(budget *membudget.Budget) *loader {
	return &loader{budget: budget}
}

func (l *loader) s3Client(ctx context.Context) (*s3fetch.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil {
		c, err := s3fetch.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		l.client = c
	}
	return l.client, nil
}

// Load returns the bytes of source.
func (l *loader) Load(ctx context.Context, source string) (*loadedSave, error) {
	if !s3fetch.IsS3URI(source) {
		m, err := fileutil.Map(source)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", source, err)
		}
		return &loadedSave{Data: m.Data(), release: m.Close}, nil
	}

	bucket, key, err := s3fetch.ParseS3URI(source)
	if err != nil {
		return nil, err
	}
	client, err := l.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	size, err := client.Size(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if err := l.budget.Reserve(ctx, uint64(size)); err != nil {
		return nil, fmt.Errorf("reserve %s for %s: %w", humanfmt.Bytes(size), source, err)
	}

	data, res, err := client.Download(ctx, bucket, key, size)
	if err != nil {
		l.budget.Release(uint64(size))
		return nil, err
	}
	logging.PhaseComplete(logctx.FromContext(ctx), "fetch", res.Duration).
		Bytes("bytes", res.BytesDownloaded).
		Int("concurrency", res.Concurrency).
		Throughput(res.BytesDownloaded).
		LogDebug("save fetched")

	return &loadedSave{Data: data, release: func() error {
		l.budget.Release(uint64(size))
		return nil
	}}, nil
}
