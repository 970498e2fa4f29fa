package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/keylock"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/metrics"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymate/internal/server/visibility"
)

// RelationshipService runs the binding state machine: pending requests,
// mutual bindings and their removal. Every operation takes the acting
// username explicitly.
//
// Reads never fail: storage errors are logged and an empty result returned,
// so visibility degrades to the viewer's own content. Writes surface
// common.ErrStorage.
type RelationshipService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	locks       *keylock.Locker
	logger      logging.Logger
}

func NewRelationshipService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *RelationshipService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RelationshipService{
		db:          db,
		repomanager: m,
		locks:       keylock.New(),
		logger:      logger.With("module", "relationships"),
	}
}

func actorAndTarget(current, target string) (string, string, error) {
	current = strings.TrimSpace(current)
	target = strings.TrimSpace(target)
	if current == "" {
		return "", "", common.ErrNotAuthenticated
	}
	if target == "" {
		return "", "", common.ErrEmptyField
	}
	return current, target, nil
}

// SendRequest records a pending request current -> target.
func (s *RelationshipService) SendRequest(ctx context.Context, current, target string) (err error) {
	defer func() { metrics.RelationshipOp("send", err) }()

	current, target, err = actorAndTarget(current, target)
	if err != nil {
		return err
	}
	if current == target {
		return common.ErrSelfTarget
	}

	unlock := s.locks.Lock(current, target)
	defer unlock()

	if _, err := s.repomanager.Users(s.db).Get(ctx, target); err != nil {
		return common.Storage(err)
	}

	repo := s.repomanager.Relationships(s.db)
	bound, err := repo.BindingExists(ctx, current, target)
	if err != nil {
		return common.Storage(err)
	}
	if bound {
		return common.ErrAlreadyBound
	}
	pending, err := repo.RequestExists(ctx, current, target)
	if err != nil {
		return common.Storage(err)
	}
	if pending {
		return common.ErrAlreadyRequested
	}

	if err := repo.InsertRequest(ctx, current, target); err != nil {
		return common.Storage(err)
	}
	s.logger.Info(ctx, "binding requested", "from", current, "to", target)
	return nil
}

// AcceptRequest turns the pending request from -> current into a binding.
// A reverse request current -> from, if any, is dropped in the same
// transaction.
func (s *RelationshipService) AcceptRequest(ctx context.Context, current, from string) (err error) {
	defer func() { metrics.RelationshipOp("accept", err) }()

	current, from, err = actorAndTarget(current, from)
	if err != nil {
		if errors.Is(err, common.ErrEmptyField) {
			return common.ErrNoSuchRequest
		}
		return err
	}

	unlock := s.locks.Lock(current, from)
	defer unlock()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Relationships(tx)

		ok, err := repo.DeleteRequest(ctx, from, current)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrNoSuchRequest
		}
		if _, err := repo.DeleteRequest(ctx, current, from); err != nil {
			return err
		}
		if err := repo.InsertBinding(ctx, current, from); err != nil && !errors.Is(err, common.ErrAlreadyBound) {
			return err
		}
		return nil
	})
	if err != nil {
		return common.Storage(err)
	}
	s.logger.Info(ctx, "binding accepted", "user", current, "partner", from)
	return nil
}

// RejectReceivedRequest drops the pending request from -> current.
func (s *RelationshipService) RejectReceivedRequest(ctx context.Context, current, from string) (err error) {
	defer func() { metrics.RelationshipOp("reject", err) }()
	return s.dropRequest(ctx, current, from, false)
}

// RejectRequest is RejectReceivedRequest.
func (s *RelationshipService) RejectRequest(ctx context.Context, current, from string) error {
	return s.RejectReceivedRequest(ctx, current, from)
}

// CancelSentRequest withdraws the pending request current -> target.
func (s *RelationshipService) CancelSentRequest(ctx context.Context, current, target string) (err error) {
	defer func() { metrics.RelationshipOp("cancel", err) }()
	return s.dropRequest(ctx, current, target, true)
}

func (s *RelationshipService) dropRequest(ctx context.Context, current, other string, outgoing bool) error {
	current, other, err := actorAndTarget(current, other)
	if err != nil {
		if errors.Is(err, common.ErrEmptyField) {
			return common.ErrNoSuchRequest
		}
		return err
	}

	unlock := s.locks.Lock(current, other)
	defer unlock()

	from, to := other, current
	if outgoing {
		from, to = current, other
	}
	ok, err := s.repomanager.Relationships(s.db).DeleteRequest(ctx, from, to)
	if err != nil {
		return common.Storage(err)
	}
	if !ok {
		return common.ErrNoSuchRequest
	}
	s.logger.Info(ctx, "binding request removed", "from", from, "to", to, "by", current)
	return nil
}

// Unbind removes the binding between current and target.
func (s *RelationshipService) Unbind(ctx context.Context, current, target string) (err error) {
	defer func() { metrics.RelationshipOp("unbind", err) }()

	current, target, err = actorAndTarget(current, target)
	if err != nil {
		return err
	}
	if current == target {
		return common.ErrSelfTarget
	}

	unlock := s.locks.Lock(current, target)
	defer unlock()

	repo := s.repomanager.Relationships(s.db)
	bound, err := repo.BindingExists(ctx, current, target)
	if err != nil {
		return common.Storage(err)
	}
	if !bound {
		return common.ErrNotBound
	}
	// A concurrent unbind from another process may have won; that is fine.
	if _, err := repo.DeleteBinding(ctx, current, target); err != nil {
		return common.Storage(err)
	}
	s.logger.Info(ctx, "binding removed", "user", current, "partner", target)
	return nil
}

// ListBound returns the sorted partners of current.
func (s *RelationshipService) ListBound(ctx context.Context, current string) []string {
	current = strings.TrimSpace(current)
	if current == "" {
		return []string{}
	}
	bound, err := s.repomanager.Relationships(s.db).Bound(ctx, current)
	if err != nil {
		s.logger.Error(ctx, "loading bindings failed", "user", current, "error", err)
		return []string{}
	}
	return bound
}

func (s *RelationshipService) IsBound(ctx context.Context, current, other string) bool {
	current, other, err := actorAndTarget(current, other)
	if err != nil || current == other {
		return false
	}
	ok, err := s.repomanager.Relationships(s.db).BindingExists(ctx, current, other)
	if err != nil {
		s.logger.Error(ctx, "checking binding failed", "user", current, "partner", other, "error", err)
		return false
	}
	return ok
}

// Record returns the full relationship view of current.
func (s *RelationshipService) Record(ctx context.Context, current string) models.Relationship {
	current = strings.TrimSpace(current)
	rec := models.Relationship{Username: current, Sent: []string{}, Received: []string{}, Bound: []string{}}
	if current == "" {
		return rec
	}

	repo := s.repomanager.Relationships(s.db)
	load := func(what string, fn func(context.Context, string) ([]string, error)) []string {
		out, err := fn(ctx, current)
		if err != nil {
			s.logger.Error(ctx, "loading relationships failed", "user", current, "set", what, "error", err)
			return []string{}
		}
		return out
	}
	rec.Sent = load("sent", repo.Sent)
	rec.Received = load("received", repo.Received)
	rec.Bound = load("bound", repo.Bound)
	return rec
}

// VisibleAuthors is the viewer plus every partner they are bound to.
func (s *RelationshipService) VisibleAuthors(ctx context.Context, viewer string) visibility.Set {
	return visibility.Authors(viewer, s.ListBound(ctx, viewer))
}
