// Package list is the List API surface: every read and mutation of a shared shopping list,
// independent of transport. A mutation reads the list, applies the change, recomputes the
// recipe items when attachments changed, persists once and publishes once.
package list

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/shoplist/internal/aggregate"
	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/invite"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/parser"
	"github.com/dukerupert/shoplist/internal/store"
	"github.com/dukerupert/shoplist/internal/websocket"
)

// maxAttempts bounds how often a mutation is recomputed after losing a version race.
const maxAttempts = 3

// Broadcaster notifies live subscribers that a list changed.
type Broadcaster interface {
	Publish(listID int64, ev websocket.Event) int
	Close(listID int64)
	Drop(listID, userID int64)
}

type Service struct {
	lists   *store.ListStore
	invites *invite.Manager
	agg     *aggregate.Aggregator
	parser  parser.Parser
	hub     Broadcaster
	logger  *slog.Logger
}

func NewService(lists *store.ListStore, invites *invite.Manager, agg *aggregate.Aggregator, p parser.Parser, hub Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		lists:   lists,
		invites: invites,
		agg:     agg,
		parser:  p,
		hub:     hub,
		logger:  logger,
	}
}

// Create returns the caller's own list, creating it on first use.
func (s *Service) Create(ctx context.Context, userID int64) (*model.List, error) {
	return s.lists.Create(ctx, userID)
}

// Lists returns the lists the user owns or is a member of.
func (s *Service) Lists(ctx context.Context, userID int64) ([]model.List, error) {
	return s.lists.ListForUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID, listID int64) (*model.List, error) {
	if _, err := s.invites.Sweep(ctx); err != nil {
		s.logger.Warn("sweep invites", "error", err)
	}
	return s.load(ctx, userID, listID)
}

// Delete removes the list and disconnects its subscribers. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, userID, listID int64) error {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return err
	}
	if !l.IsOwner(userID) {
		return apperr.Forbidden("only the owner can delete the list")
	}
	if err := s.lists.Delete(ctx, listID); err != nil {
		return err
	}
	s.hub.Close(listID)
	s.logger.Info("list deleted", "list_id", listID, "user_id", userID)
	return nil
}

// CanSubscribe applies the push channel policy: members always may subscribe, the owner only
// while the list is shared with at least one member.
func (s *Service) CanSubscribe(ctx context.Context, userID, listID int64) error {
	l, err := s.load(ctx, userID, listID)
	if err != nil {
		return err
	}
	if l.IsOwner(userID) && len(l.SharedWith) == 0 {
		return apperr.Forbidden("list is not shared")
	}
	return nil
}

// load returns the list if userID may access it.
func (s *Service) load(ctx context.Context, userID, listID int64) (*model.List, error) {
	l, err := s.lists.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperr.NotFound("list %d not found", listID)
	}
	if !l.CanAccess(userID) {
		return nil, apperr.Forbidden("you do not have access to this list")
	}
	return l, nil
}

// mutate runs fn against a fresh copy of the list and persists the result. When another
// writer committed first, the whole read-apply-write cycle is repeated.
func (s *Service) mutate(ctx context.Context, userID, listID int64, fn func(l *model.List) error) (*model.List, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := s.load(ctx, userID, listID)
		if err != nil {
			return nil, err
		}
		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		if err := checkQuantities(next.Items); err != nil {
			return nil, err
		}

		err = s.lists.Save(ctx, next)
		if errors.Is(err, store.ErrConflict) {
			s.logger.Debug("list changed concurrently, retrying", "list_id", listID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(next.ID, next.UpdatedAt)
		return next, nil
	}
	return nil, apperr.Conflict("list %d is being changed by someone else, try again", listID)
}

// checkQuantities rejects totals that overflowed while merging or scaling.
func checkQuantities(items []model.Item) error {
	for _, it := range items {
		if !it.Quantity.Finite() {
			return apperr.Validation("quantity of %s is too large", it.Name)
		}
	}
	return nil
}

// recompute rebuilds the recipe items of l in place.
func (s *Service) recompute(ctx context.Context, l *model.List) error {
	items, recipes, err := s.agg.Recompute(ctx, l.ID, l.Items, l.Recipes)
	if err != nil {
		return err
	}
	l.Items, l.Recipes = items, recipes
	return nil
}

func (s *Service) publish(listID int64, updatedAt time.Time) {
	n := s.hub.Publish(listID, websocket.UpdateEvent(updatedAt))
	s.logger.Debug("published update", "list_id", listID, "subscribers", n)
}

// refreshAndPublish announces a membership change, which the stores commit on their own.
func (s *Service) refreshAndPublish(ctx context.Context, listID int64) (*model.List, error) {
	l, err := s.lists.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperr.NotFound("list %d not found", listID)
	}
	s.publish(l.ID, l.UpdatedAt)
	return l, nil
}

func (s *Service) logMismatches(listID int64, mismatches []grocery.Mismatch) {
	for _, m := range mismatches {
		s.logger.Warn("merged items disagree on category",
			"list_id", listID, "item_id", m.ItemID, "name", m.Name,
			"existing", m.Existing, "incoming", m.Incoming)
	}
}
