package content

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrPageNotFound is returned for unknown or unpublished slugs
var ErrPageNotFound = errors.New("page not found")

// Service serves informational project pages
type Service struct {
	db *gorm.DB
}

// NewService creates a content service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns published development projects, newest first
func (s *Service) List(ctx context.Context) ([]DevelopmentProject, error) {
	var pages []DevelopmentProject
	err := s.db.WithContext(ctx).
		Where("published = true").
		Order("created_at DESC").
		Find(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list development projects: %w", err)
	}
	return pages, nil
}

// GetBySlug returns a single published page
func (s *Service) GetBySlug(ctx context.Context, slug string) (*DevelopmentProject, error) {
	var page DevelopmentProject
	err := s.db.WithContext(ctx).
		Where("slug = ? AND published = true", slug).
		First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load development project: %w", err)
	}
	return &page, nil
}
