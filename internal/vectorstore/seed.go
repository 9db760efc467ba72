package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/futig/askdocs/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const seedBatchSize = 32

// LoadSeedFile reads a JSON array of {content, metadata} documents.
// Documents with blank content are dropped.
func LoadSeedFile(path string) ([]entity.SeedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var docs []entity.SeedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	out := docs[:0]
	for _, d := range docs {
		if strings.TrimSpace(d.Content) != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

// Seed loads the seed file into the collection in batches.
func Seed(ctx context.Context, c *Collection, path string) (int, error) {
	docs, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(docs); start += seedBatchSize {
		end := start + seedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := c.InsertBatch(ctx, docs[start:end]); err != nil {
			return start, fmt.Errorf("seed documents %d-%d: %w", start, end, err)
		}
	}

	ctxzap.Info(ctx, "collection seeded",
		zap.String("collection", c.Name()),
		zap.String("file", path),
		zap.Int("documents", len(docs)),
	)
	return len(docs), nil
}
