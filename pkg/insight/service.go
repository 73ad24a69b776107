package insight

import (
	"context"
	"time"

	"github.com/raceviz/race-view-service-go/log"
	"github.com/raceviz/race-view-service-go/pkg/model"
	"github.com/raceviz/race-view-service-go/pkg/utils/cache"
	"github.com/raceviz/race-view-service-go/pkg/utils/cache/loadercache"
)

const DefaultCacheTTL = 10 * time.Minute

// Service caches analysis reports per driver. Failed fetches stay out
// of the cache so the next request retries against the remote service.
type Service struct {
	client *Client
	cache  cache.Cache[string, model.DriverInsightReport]
}

type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	ttl time.Duration
	l   *log.Logger
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		c.ttl = ttl
	}
}

func WithServiceLogger(l *log.Logger) ServiceOption {
	return func(c *serviceConfig) {
		c.l = l
	}
}

func NewService(client *Client, opts ...ServiceOption) *Service {
	cfg := &serviceConfig{
		ttl: DefaultCacheTTL,
		l:   log.Default().Named("insight"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		client: client,
		cache: loadercache.New(
			loadercache.WithExpiration[string, model.DriverInsightReport](cfg.ttl),
			loadercache.WithLogger[string, model.DriverInsightReport](cfg.l),
			loadercache.WithLoader(client.Fetch),
		),
	}
}

// Report returns the cached analysis for a driver, fetching it on the
// first request.
func (s *Service) Report(ctx context.Context, driverName string) (
	*model.DriverInsightReport, error,
) {
	return s.cache.Get(ctx, driverName)
}

// Invalidate drops one driver's cached report.
func (s *Service) Invalidate(ctx context.Context, driverName string) {
	s.cache.Invalidate(ctx, driverName)
}

// Reset drops all cached reports, typically on a race reset.
func (s *Service) Reset(ctx context.Context) {
	s.cache.InvalidateAll(ctx)
}
