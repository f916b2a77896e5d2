package library

import (
	"context"
	"log/slog"
	"path/filepath"

	"nomen/internal/config"
	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/logging"
	"nomen/internal/metadata"
	"nomen/internal/reader"
	"nomen/internal/writer"
)

// Service coordinates reads, writes and record bookkeeping.
type Service struct {
	cfg    *config.Config
	store  *filestore.Store
	writer *writer.Writer
	logger *slog.Logger
}

// NewService constructs a Service with a writer built from cfg.
func NewService(cfg *config.Config, store *filestore.Store, logger *slog.Logger) *Service {
	return NewServiceWithWriter(cfg, store, writer.NewFromConfig(cfg, logger), logger)
}

// NewServiceWithWriter allows injecting the writer (used in tests).
func NewServiceWithWriter(cfg *config.Config, store *filestore.Store, w *writer.Writer, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		writer: w,
		logger: logging.NewComponentLogger(logger, "library"),
	}
}

// Import reads path and upserts its record. A record whose stored hash still
// matches the file is returned as is.
func (s *Service) Import(ctx context.Context, path string) (*filestore.Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "import", path, err)
	}
	if _, ok := logging.OperationFromContext(ctx); !ok {
		ctx = logging.WithOperation(ctx, "import")
	}
	logger := logging.WithContext(ctx, s.logger)

	hash, err := reader.QuickHash(abs)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetByPath(ctx, abs)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "import", "load record", err)
	}
	if existing != nil && existing.FileHash == hash {
		logger.Debug("record up to date", logging.String(logging.FieldPath, abs))
		return existing, nil
	}

	rec, err := s.readRecord(abs, hash)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.Put(ctx, rec)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "import", "store record", err)
	}
	logger.Info("file imported",
		logging.String(logging.FieldPath, abs),
		logging.String(logging.FieldRecordID, stored.ID),
		logging.Bool("refreshed", existing != nil),
	)
	return stored, nil
}

func (s *Service) readRecord(path, hash string) (*filestore.Record, error) {
	snap, err := reader.Read(path, s.logger)
	if err != nil {
		return nil, err
	}
	snap.Metadata = withChunkFallbacks(snap.Metadata, snap.Bext, snap.Info)
	return filestore.NewRecord(path, hash, snap), nil
}

// withChunkFallbacks fills keys the iXML left unset from the bext and INFO
// chunks, so files tagged by other tools still show their values.
func withChunkFallbacks(md *metadata.Metadata, b *reader.Bext, info *reader.Info) *metadata.Metadata {
	if md == nil {
		md = &metadata.Metadata{}
	}
	fill := func(k metadata.Key, values ...string) {
		if md.Has(k) {
			return
		}
		for _, v := range values {
			if v != "" {
				_ = md.Set(k, v)
				return
			}
		}
	}
	var desc, originator string
	if b != nil {
		desc, originator = b.Description, b.Originator
	}
	var title, artist, genre, comment, product, keywords string
	if info != nil {
		title, artist, genre = info.Title, info.Artist, info.Genre
		comment, product, keywords = info.Comment, info.Product, info.Keywords
	}
	fill(metadata.Description, desc)
	fill(metadata.Designer, originator, artist)
	fill(metadata.FXName, title)
	fill(metadata.Category, genre)
	fill(metadata.Notes, comment)
	fill(metadata.Library, product)
	fill(metadata.Keywords, keywords)
	return md
}
