package paper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/paperflow-ai/paperflow/config"
)

// ErrPaperNotFound reports that no paper matched the lookup.
var ErrPaperNotFound = errors.New("paper not found")

// Store persists papers via GORM.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore opens the configured database and migrates the schema.
// Supported drivers are sqlite and postgres.
func NewStore(cfg config.DatabaseConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&Paper{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("paper store initialized", zap.String("driver", cfg.Driver))

	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "paper_store")),
	}, nil
}

// Create inserts a paper. A missing ID is filled in with a UUID.
func (s *Store) Create(ctx context.Context, p *Paper) error {
	if p == nil {
		return fmt.Errorf("paper cannot be nil")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("paper title cannot be empty")
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create paper: %w", err)
	}

	s.logger.Debug("paper created", zap.String("id", p.ID), zap.String("title", p.Title))
	return nil
}

// Get returns the paper with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Paper, error) {
	var p Paper
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	return &p, nil
}

// GetByArxivID returns the paper with the given arXiv identifier.
func (s *Store) GetByArxivID(ctx context.Context, arxivID string) (*Paper, error) {
	var p Paper
	err := s.db.WithContext(ctx).First(&p, "arxiv_id = ?", arxivID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: arxiv %s", ErrPaperNotFound, arxivID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}
	return &p, nil
}

// List returns papers ordered by publication date, newest first.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Paper, error) {
	q := s.db.WithContext(ctx).Order("published DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var papers []*Paper
	if err := q.Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	return papers, nil
}

// Search matches the query against titles and abstracts.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*Paper, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	q := s.db.WithContext(ctx).
		Where("title LIKE ? OR abstract LIKE ?", pattern, pattern).
		Order("published DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var papers []*Paper
	if err := q.Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to search papers: %w", err)
	}
	return papers, nil
}

// Delete removes the paper with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Paper{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete paper: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}

	s.logger.Debug("paper deleted", zap.String("id", id))
	return nil
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *gorm.DB {
	return s.db
}
