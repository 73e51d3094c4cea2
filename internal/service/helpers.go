package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"mediabot/internal/models"
	"mediabot/internal/utils"
)

// processItem fetches one link, routes it by size and always removes the artifact.
func (s *Service) processItem(ctx context.Context, req models.DownloadRequest, d Deliverer) (*models.DownloadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExtractionFailed, err)
	}

	res, err := s.extractor.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	defer s.cleanup(res.ArtifactPath)

	size, err := utils.FileSize(res.ArtifactPath)
	if err != nil {
		if os.IsNotExist(err) || res.ArtifactPath == "" {
			return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, res.ArtifactPath)
		}

		return nil, fmt.Errorf("%w: %w", models.ErrArtifactMissing, err)
	}
	res.SizeBytes = size

	if size < s.deliveryLimit {
		if err := d.DeliverFile(ctx, res); err != nil {
			return nil, fmt.Errorf("failed to deliver %q: %w", res.Title, err)
		}

		return res, nil
	}

	s.log.Info("artifact over delivery limit",
		slog.String("title", res.Title),
		slog.Int64("size", size),
		slog.Int64("limit", s.deliveryLimit),
	)

	if err := d.DeliverOversize(ctx, res); err != nil {
		s.log.Warn("failed to send oversize notice", slog.String("error", err.Error()))
	}

	return res, nil
}

func (s *Service) cleanup(path string) {
	if err := utils.RemoveArtifact(path); err != nil {
		s.log.Error("failed to remove artifact", slog.String("path", path), slog.String("error", err.Error()))
	}
}
