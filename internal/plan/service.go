// Package plan implements learning plans: topic/resource lists owned by a
// user, with completion tracking and optional community sharing.
package plan

import (
	"context"
	"time"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/cache"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/store"
)

const sharedCacheTTL = 2 * time.Minute

// Store is the slice of the plan repository the service needs.
type Store interface {
	Create(ctx context.Context, plan *store.Plan) error
	Save(ctx context.Context, plan *store.Plan) error
	FindByID(ctx context.Context, id string) (*store.Plan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]store.Plan, error)
	ListShared(ctx context.Context) ([]store.Plan, error)
	Delete(ctx context.Context, id string) error
}

var _ Store = (*store.PlanRepo)(nil)

// CreateRequest is the payload for creating a plan.
type CreateRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=2000"`
	StartDate   string   `json:"startDate" binding:"max=50"`
	EndDate     string   `json:"endDate" binding:"max=50"`
	Topics      []string `json:"topics" binding:"dive,max=255"`
	Resources   []string `json:"resources" binding:"dive,max=512"`
	Shared      bool     `json:"shared"`
}

// UpdateRequest is the payload for updating a plan.
type UpdateRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description" binding:"max=2000"`
	StartDate   string   `json:"startDate" binding:"max=50"`
	EndDate     string   `json:"endDate" binding:"max=50"`
	Topics      []string `json:"topics" binding:"dive,max=255"`
	Resources   []string `json:"resources" binding:"dive,max=512"`
	Shared      bool     `json:"shared"`
}

// Service implements plan operations. The shared-plan listing is cached in
// Redis for a short window since it is the plan feed every visitor sees.
type Service struct {
	plans       Store
	sharedCache *cache.TypedStore[[]store.Plan]
	log         *logger.Logger
}

// NewService wires a plan service. sharedCache may be nil to disable
// caching.
func NewService(plans Store, sharedCache *cache.TypedStore[[]store.Plan], log *logger.Logger) *Service {
	return &Service{
		plans:       plans,
		sharedCache: sharedCache,
		log:         log.WithComponent("plan"),
	}
}

// Create stores a new plan for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*store.Plan, error) {
	p := &store.Plan{
		OwnerID:            ownerID,
		Title:              req.Title,
		Description:        req.Description,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Topics:             req.Topics,
		Resources:          req.Resources,
		CompletedResources: store.StringList{},
		Shared:             req.Shared,
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	if p.Shared {
		s.invalidateShared(ctx)
	}
	return p, nil
}

// Get loads a plan. Unshared plans are only visible to their owner.
func (s *Service) Get(ctx context.Context, id, viewerID string) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Shared && p.OwnerID != viewerID {
		return nil, apperr.NotFound("plan", id)
	}
	return p, nil
}

// Update replaces a plan's content. Only the owner may update. Completed
// resources that no longer exist in the resource list are dropped.
func (s *Service) Update(ctx context.Context, id, actorID string, req UpdateRequest) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, apperr.Forbidden("only the owner can update a plan")
	}

	p.Title = req.Title
	p.Description = req.Description
	p.StartDate = req.StartDate
	p.EndDate = req.EndDate
	p.Topics = req.Topics
	p.Resources = req.Resources
	p.Shared = req.Shared
	p.CompletedResources = intersect(p.CompletedResources, req.Resources)

	if err := s.plans.Save(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateShared(ctx)
	return p, nil
}

// Delete removes a plan. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != actorID {
		return apperr.Forbidden("only the owner can delete a plan")
	}
	if err := s.plans.Delete(ctx, id); err != nil {
		return err
	}
	if p.Shared {
		s.invalidateShared(ctx)
	}
	return nil
}

// Mine lists the caller's plans.
func (s *Service) Mine(ctx context.Context, ownerID string) ([]store.Plan, error) {
	return s.plans.ListByOwner(ctx, ownerID)
}

// Shared lists community-shared plans, serving from cache when warm.
func (s *Service) Shared(ctx context.Context) ([]store.Plan, error) {
	if s.sharedCache != nil {
		if cached, err := s.sharedCache.Load(ctx, "all"); err == nil && cached != nil {
			return *cached, nil
		}
	}

	plans, err := s.plans.ListShared(ctx)
	if err != nil {
		return nil, err
	}

	if s.sharedCache != nil {
		if err := s.sharedCache.Save(ctx, "all", &plans, sharedCacheTTL); err != nil {
			s.log.Warn("Failed to cache shared plans", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return plans, nil
}

// ToggleResource marks a resource completed, or un-completes it if already
// marked. Only the owner may track progress.
func (s *Service) ToggleResource(ctx context.Context, id, actorID, resource string) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, apperr.Forbidden("only the owner can track progress")
	}
	if !contains(p.Resources, resource) {
		return nil, apperr.InvalidInput("resource", "resource is not part of this plan")
	}

	if contains(p.CompletedResources, resource) {
		p.CompletedResources = remove(p.CompletedResources, resource)
	} else {
		p.CompletedResources = append(p.CompletedResources, resource)
	}

	if err := s.plans.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddResource appends a resource to the plan. Adding a resource the plan
// already has is a no-op. Only the owner may add.
func (s *Service) AddResource(ctx context.Context, id, actorID, resource string) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, apperr.Forbidden("only the owner can modify a plan")
	}
	if contains(p.Resources, resource) {
		return p, nil
	}

	p.Resources = append(p.Resources, resource)
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, err
	}
	if p.Shared {
		s.invalidateShared(ctx)
	}
	return p, nil
}

// RemoveResource drops a resource from the plan, along with its completion
// mark. Removing an absent resource is a no-op. Only the owner may remove.
func (s *Service) RemoveResource(ctx context.Context, id, actorID, resource string) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, apperr.Forbidden("only the owner can modify a plan")
	}
	if !contains(p.Resources, resource) {
		return p, nil
	}

	p.Resources = remove(p.Resources, resource)
	p.CompletedResources = remove(p.CompletedResources, resource)
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, err
	}
	if p.Shared {
		s.invalidateShared(ctx)
	}
	return p, nil
}

// SetCompletedResources replaces the completed-resource list wholesale.
// Entries not present in the resource list are dropped. Only the owner may
// track progress.
func (s *Service) SetCompletedResources(ctx context.Context, id, actorID string, completed []string) (*store.Plan, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != actorID {
		return nil, apperr.Forbidden("only the owner can track progress")
	}

	p.CompletedResources = intersect(completed, p.Resources)
	if err := s.plans.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) invalidateShared(ctx context.Context) {
	if s.sharedCache == nil {
		return
	}
	if err := s.sharedCache.Delete(ctx, "all"); err != nil {
		s.log.Warn("Failed to invalidate shared plan cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func intersect(list, keep []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if contains(keep, item) {
			out = append(out, item)
		}
	}
	return out
}
