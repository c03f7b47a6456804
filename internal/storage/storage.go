// Package storage persists report artifacts and run summaries.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/metrics"
	"github.com/ignite/insight-engine/internal/pkg/awsconf"
)

// ArtifactStore saves rendered report files and returns where they landed.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// SummaryIndex records the summary of each run for later lookup.
type SummaryIndex interface {
	SaveSummary(ctx context.Context, runID, dataset string, summary metrics.Summary) error
}

// LocalStore writes artifacts under a directory.
type LocalStore struct {
	dir string
	mu  sync.Mutex
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes data to dir/name, creating sub-directories named in name.
// The write goes through a temp file so readers never see a partial artifact.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(clean))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming artifact: %w", err)
	}
	return path, nil
}

// cleanName rejects absolute names and names escaping the store root.
func cleanName(name string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if name == "" || clean == "." || strings.HasPrefix(clean, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return clean, nil
}

// New selects the artifact store named by cfg.Storage.Type ("local" or "s3")
// and, when a DynamoDB table is configured, a summary index. The index is nil
// otherwise.
func New(ctx context.Context, cfg *config.Config) (ArtifactStore, SummaryIndex, error) {
	sc := cfg.Storage
	switch sc.Type {
	case "", "local":
		store, err := NewLocalStore(sc.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		if sc.DynamoDBTable == "" {
			return store, nil, nil
		}
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, nil, err
		}
		return store, NewDynamoSummaryIndex(awsCfg, sc.DynamoDBTable), nil
	case "s3":
		if sc.S3Bucket == "" {
			return nil, nil, fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, nil, err
		}
		var index SummaryIndex
		if sc.DynamoDBTable != "" {
			index = NewDynamoSummaryIndex(awsCfg, sc.DynamoDBTable)
		}
		return NewS3Store(awsCfg, sc.S3Bucket, sc.S3Prefix), index, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", sc.Type)
	}
}
