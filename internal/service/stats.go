package service

import (
	"context"

	"mediabot/internal/models"
)

type SessionCounter interface {
	ActiveSessions() int
}

type TotalsReader interface {
	Totals(ctx context.Context) (models.Totals, error)
}

// Stats aggregates live counters with journal totals. Journal may be nil.
type Stats struct {
	Engine   *Service
	Sessions SessionCounter
	Journal  TotalsReader
}

func (s Stats) Totals(ctx context.Context) (*models.Totals, error) {
	if s.Journal == nil {
		return nil, nil
	}

	t, err := s.Journal.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s Stats) ActiveSessions() int {
	return s.Sessions.ActiveSessions()
}

func (s Stats) RunningBatches() int {
	return s.Engine.Running()
}
