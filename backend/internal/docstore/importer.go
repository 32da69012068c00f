package docstore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "cinegraph/backend/pkg/errors"
	"cinegraph/backend/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// designDocPrefix marks CouchDB-style design documents mixed into dataset exports
const designDocPrefix = `{"_id":"_design`

const maxLineBytes = 4 * 1024 * 1024

// ErrCollectionNotEmpty is returned when importing into a populated collection without replace
var ErrCollectionNotEmpty = apperrors.NewBaseError(apperrors.ErrorTypeData,
	"films collection is not empty; re-import must explicitly replace it", nil)

// ImportStats summarizes one bulk import
type ImportStats struct {
	Lines    int                             `json:"lines"`
	Parsed   int                             `json:"parsed"`
	Design   int                             `json:"design_skipped"`
	Skipped  int                             `json:"malformed_skipped"`
	Replaced int64                           `json:"replaced"`
	Inserted int                             `json:"inserted"`
	Errors   []*apperrors.ErrMalformedRecord `json:"-"`
}

// collection is the subset of Store used by the importer
type collection interface {
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, docs []bson.M) (int, error)
}

// Importer loads a one-object-per-line JSON file into the films collection
type Importer struct {
	films  collection
	logger *zap.Logger
}

// NewImporter creates an importer writing into the store's films collection
func NewImporter(store *Store) *Importer {
	return newImporter(store)
}

func newImporter(films collection) *Importer {
	return &Importer{films: films, logger: logger.Named("import")}
}

// ImportFile imports path. A populated collection is only touched when replace is set,
// in which case it is emptied first (destructive replace, never a merge).
func (im *Importer) ImportFile(ctx context.Context, path string, replace bool) (*ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return im.Import(ctx, f, replace)
}

// Import reads records from r and writes them to the collection
func (im *Importer) Import(ctx context.Context, r io.Reader, replace bool) (*ImportStats, error) {
	existing, err := im.films.Count(ctx)
	if err != nil {
		return nil, err
	}
	if existing > 0 && !replace {
		return nil, ErrCollectionNotEmpty
	}

	docs, stats, err := ParseLines(r)
	if err != nil {
		return stats, err
	}
	for _, bad := range stats.Errors {
		im.logger.Warn("Skipping malformed line",
			zap.Int("line", bad.Line),
			zap.String("excerpt", bad.Excerpt),
			zap.Error(bad.Err),
		)
	}

	if existing > 0 {
		deleted, err := im.films.DeleteAll(ctx)
		if err != nil {
			return stats, err
		}
		stats.Replaced = deleted
		im.logger.Info("Existing films removed before import", zap.Int64("deleted", deleted))
	}

	if len(docs) == 0 {
		im.logger.Warn("No films to import")
		return stats, nil
	}

	inserted, err := im.films.InsertMany(ctx, docs)
	stats.Inserted = inserted
	if err != nil {
		return stats, err
	}

	im.logger.Info("Films imported",
		zap.Int("inserted", inserted),
		zap.Int("malformed_skipped", stats.Skipped),
		zap.Int("design_skipped", stats.Design),
	)
	return stats, nil
}

// ParseLines decodes one JSON object per line. Blank lines and design documents are
// skipped silently; lines that fail to decode or exceed maxLineBytes are counted and
// reported, never fatal.
func ParseLines(r io.Reader) ([]bson.M, *ImportStats, error) {
	stats := &ImportStats{}
	var docs []bson.M

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return docs, stats, fmt.Errorf("failed to read import input: %w", err)
		}

		stats.Lines++
		if tooLong {
			stats.Skipped++
			stats.Errors = append(stats.Errors, apperrors.NewMalformedRecord(stats.Lines, string(raw), bufio.ErrTooLong))
			continue
		}

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, designDocPrefix) {
			stats.Design++
			continue
		}

		var doc bson.M
		if err := bson.UnmarshalExtJSON([]byte(line), false, &doc); err != nil {
			stats.Skipped++
			stats.Errors = append(stats.Errors, apperrors.NewMalformedRecord(stats.Lines, line, err))
			continue
		}
		docs = append(docs, doc)
		stats.Parsed++
	}

	return docs, stats, nil
}

// readLine returns the next line without its terminator. A line longer than
// maxLineBytes is consumed to its end and reported as tooLong, keeping only its head.
func readLine(reader *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return line, tooLong, err
		}
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes {
				tooLong = true
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}
