package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service serves retirement summaries and exports
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a dashboard service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetSummary returns the wallet's retirement summary
func (s *Service) GetSummary(ctx context.Context, wallet string) (*Summary, error) {
	return s.repo.GetSummary(ctx, wallet)
}

// Export renders the wallet's retirement history in the requested format
func (s *Service) Export(ctx context.Context, wallet, format string) ([]byte, string, string, error) {
	rows, err := s.repo.ListHistory(ctx, wallet)
	if err != nil {
		return nil, "", "", err
	}

	switch format {
	case "csv":
		data, err := ExportCSV(rows)
		return data, "text/csv", "retirements.csv", err
	case "excel":
		data, err := ExportExcel(rows)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "retirements.xlsx", err
	default:
		return nil, "", "", fmt.Errorf("unsupported export format %q", format)
	}
}
