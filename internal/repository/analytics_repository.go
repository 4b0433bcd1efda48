package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/transport"
)

// OverviewFilter narrows the analytics input record set.
type OverviewFilter struct {
	Candidate  string
	Topic      string
	Difficulty int
}

// AnalyticsRepository consumes the backend's precomputed overview. The
// engine prefers its own aggregation over raw records and uses this as a
// degraded-mode source when the raw fetch fails.
type AnalyticsRepository interface {
	RemoteOverview(ctx context.Context, filter OverviewFilter) (*model.AnalyticsOverview, error)
}

type analyticsRepository struct {
	client transport.Client
}

func NewAnalyticsRepository(client transport.Client) AnalyticsRepository {
	return &analyticsRepository{client: client}
}

func (r *analyticsRepository) RemoteOverview(ctx context.Context, filter OverviewFilter) (*model.AnalyticsOverview, error) {
	query := url.Values{}
	if filter.Candidate != "" {
		query.Set("candidateId", filter.Candidate)
	}
	if filter.Topic != "" {
		query.Set("topic", filter.Topic)
	}
	if filter.Difficulty > 0 {
		query.Set("difficulty", strconv.Itoa(filter.Difficulty))
	}

	var overview model.AnalyticsOverview
	if err := r.client.Get(ctx, "/analytics/overview", query, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}
