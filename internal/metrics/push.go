package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	groupSeason = "crawl_season"
	groupRegion = "crawl_region"
)

// Push sends the registry to a Pushgateway, grouped by season and region.
// Batch runs exit before a scrape, so their metrics are pushed instead.
// Grouping keys must not collide with the season/region metric labels.
func Push(ctx context.Context, gatewayURL, job, season, region string) error {
	if job == "" {
		job = "mat_ingest"
	}
	err := push.New(gatewayURL, job).
		Gatherer(GetRegistry()).
		Grouping(groupSeason, season).
		Grouping(groupRegion, region).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
