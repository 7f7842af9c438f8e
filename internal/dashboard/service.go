package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// Service builds role-shaped dashboards. Concurrent requests for the same
// principal collapse into a single repository pass via singleflight.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Build returns the dashboard for the principal, served from cache when warm.
func (s *Service) Build(ctx context.Context, principal authz.Principal) (*Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, string(principal.Role), principal.ID)
	if err != nil {
		return nil, fmt.Errorf("cache key: %w", err)
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		var d Dashboard
		err := s.cache.FetchJSON(ctx, key, &d, func(ctx context.Context) (any, error) {
			return s.build(ctx, principal)
		})
		if err != nil {
			return nil, err
		}
		return &d, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Dashboard), nil
}

// Invalidate drops every cached dashboard. Called after mutations that shift
// the aggregates (project/task writes, member creation).
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm pre-builds dashboards for every active account. Driven by the cron
// warmup job.
func (s *Service) Warm(ctx context.Context) (int, error) {
	principals, err := s.repo.ActivePrincipals(ctx)
	if err != nil {
		return 0, fmt.Errorf("load principals: %w", err)
	}
	warmed := 0
	for _, p := range principals {
		if _, err := s.Build(ctx, p); err != nil {
			return warmed, fmt.Errorf("warm dashboard for user %d: %w", p.ID, err)
		}
		warmed++
	}
	return warmed, nil
}

func (s *Service) build(ctx context.Context, principal authz.Principal) (*Dashboard, error) {
	projects, err := s.repo.ProjectStats(ctx, authz.ProjectScope(principal))
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	tasks, err := s.repo.TaskStats(ctx, authz.TaskScope(principal))
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	d := &Dashboard{
		Role:     string(principal.Role),
		Projects: projects,
		Tasks:    tasks,
	}
	if principal.IsAdmin() {
		counts, err := s.repo.MemberCounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("member counts: %w", err)
		}
		d.Members = &counts
	}
	return d, nil
}
