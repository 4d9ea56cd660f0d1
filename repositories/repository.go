// Package repositories implements the optimistic-concurrency persistence
// layer. One generic repository per capability set instead of a
// subclass hierarchy: concrete collections compose Readable, Writable
// and SoftDeletable as needed.
package repositories

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories/storage"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Readable[M domain.Model] interface {
	GetByID(ctx context.Context, id domain.ID) (M, error)
	GetByIDs(ctx context.Context, ids []domain.ID) ([]M, error)
	TryGetByID(ctx context.Context, id domain.ID) (M, bool, error)
}

type Writable[M domain.Model] interface {
	Insert(ctx context.Context, m M) (M, error)
	Update(ctx context.Context, m M) (M, error)
	DeleteByID(ctx context.Context, id domain.ID) error
}

type SoftDeletable[M domain.Model] interface {
	SoftDeleteByID(ctx context.Context, id domain.ID) (M, error)
	GetByIDIncludingDeleted(ctx context.Context, id domain.ID) (M, error)
}

// Repository is the generic CRUD core. The id format check runs before
// any store access; the translation between domain model and storage
// schema is injected per collection. Every taxonomy error propagates to
// the caller untouched, the repository never retries.
type Repository[M domain.Model, S any] struct {
	log         *slog.Logger
	name        string
	col         storage.Collection[S]
	ensureID    domain.EnsureCheck
	ensureModel func(M) error
	toSchema    func(M, domain.Base) S
	fromSchema  func(S) (M, error)
	now         func() time.Time
}

func NewRepository[M domain.Model, S any](
	log *slog.Logger,
	name string,
	col storage.Collection[S],
	ensureID domain.EnsureCheck,
	ensureModel func(M) error,
	toSchema func(M, domain.Base) S,
	fromSchema func(S) (M, error),
) *Repository[M, S] {
	return &Repository[M, S]{
		log:         log,
		name:        name,
		col:         col,
		ensureID:    ensureID,
		ensureModel: ensureModel,
		toSchema:    toSchema,
		fromSchema:  fromSchema,
		now:         time.Now,
	}
}

func (r *Repository[M, S]) Insert(ctx context.Context, m M) (M, error) {
	var zero M
	if err := r.ensureModel(m); err != nil {
		return zero, err
	}
	base := m.Meta()
	if err := r.ensureID(base.ID); err != nil {
		return zero, err
	}

	doc := r.toSchema(m, base)
	if err := r.col.InsertOne(ctx, base.ID.String(), doc); err != nil {
		return zero, err
	}
	return m, nil
}

// Update performs the conditional replace: it matches the stored record
// on (id, changeStamp) and writes a copy carrying a fresh stamp. Zero
// matches mean the id is gone or another writer got there first; either
// way the caller's change did not apply.
func (r *Repository[M, S]) Update(ctx context.Context, m M) (M, error) {
	var zero M
	if err := r.ensureModel(m); err != nil {
		return zero, err
	}
	base := m.Meta()
	if err := r.ensureID(base.ID); err != nil {
		return zero, err
	}

	return r.replace(ctx, m, base.ChangeStamp, base.Rotated(r.now()))
}

func (r *Repository[M, S]) replace(ctx context.Context, m M, oldStamp string, rotated domain.Base) (M, error) {
	var zero M
	doc := r.toSchema(m, rotated)
	matched, err := r.col.ReplaceOne(ctx, rotated.ID.String(), oldStamp, doc)
	if err != nil {
		return zero, err
	}
	if !matched {
		return zero, fmt.Errorf("%w: no document in %q matches id %q with changeStamp %q",
			apperrors.ErrConflict, r.name, rotated.ID, oldStamp)
	}
	return r.fromSchema(doc)
}

func (r *Repository[M, S]) GetByID(ctx context.Context, id domain.ID) (M, error) {
	var zero M
	if err := r.ensureID(id); err != nil {
		return zero, err
	}
	doc, found, err := r.col.FindOne(ctx, id.String())
	if err != nil {
		return zero, err
	}
	if !found {
		return zero, fmt.Errorf("%w: no document with id %q in %q", apperrors.ErrNotFound, id, r.name)
	}
	return r.fromSchema(doc)
}

// GetByIDs returns the subset of records that exist; missing ids are not
// an error.
func (r *Repository[M, S]) GetByIDs(ctx context.Context, ids []domain.ID) ([]M, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := r.ensureID(id); err != nil {
			return nil, err
		}
		raw = append(raw, id.String())
	}
	docs, err := r.col.FindMany(ctx, raw)
	if err != nil {
		return nil, err
	}
	return r.fromSchemas(docs)
}

// TryGetByID reports absence through the boolean instead of an error.
func (r *Repository[M, S]) TryGetByID(ctx context.Context, id domain.ID) (M, bool, error) {
	var zero M
	if err := r.ensureID(id); err != nil {
		return zero, false, err
	}
	doc, found, err := r.col.FindOne(ctx, id.String())
	if err != nil || !found {
		return zero, false, err
	}
	m, err := r.fromSchema(doc)
	if err != nil {
		return zero, false, err
	}
	return m, true, nil
}

func (r *Repository[M, S]) DeleteByID(ctx context.Context, id domain.ID) error {
	if err := r.ensureID(id); err != nil {
		return err
	}
	deleted, err := r.col.DeleteOne(ctx, id.String())
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: no document with id %q in %q", apperrors.ErrNotFound, id, r.name)
	}
	return nil
}

func (r *Repository[M, S]) fromSchemas(docs []S) ([]M, error) {
	models := make([]M, 0, len(docs))
	for _, doc := range docs {
		m, err := r.fromSchema(doc)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// SoftRepository keeps deleted documents in place and hides them from the
// default read paths. Soft deletion rides the same conditional replace as
// any other update, so a stale stamp fails with ErrConflict instead of
// silently succeeding.
type SoftRepository[M domain.Model, S any] struct {
	*Repository[M, S]
}

func NewSoftRepository[M domain.Model, S any](r *Repository[M, S]) *SoftRepository[M, S] {
	return &SoftRepository[M, S]{Repository: r}
}

func (r *SoftRepository[M, S]) GetByID(ctx context.Context, id domain.ID) (M, error) {
	var zero M
	m, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if m.Meta().Deleted {
		return zero, fmt.Errorf("%w: no document with id %q in %q", apperrors.ErrNotFound, id, r.name)
	}
	return m, nil
}

func (r *SoftRepository[M, S]) GetByIDIncludingDeleted(ctx context.Context, id domain.ID) (M, error) {
	return r.Repository.GetByID(ctx, id)
}

func (r *SoftRepository[M, S]) GetByIDs(ctx context.Context, ids []domain.ID) ([]M, error) {
	models, err := r.Repository.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	alive := make([]M, 0, len(models))
	for _, m := range models {
		if !m.Meta().Deleted {
			alive = append(alive, m)
		}
	}
	return alive, nil
}

func (r *SoftRepository[M, S]) TryGetByID(ctx context.Context, id domain.ID) (M, bool, error) {
	var zero M
	m, found, err := r.Repository.TryGetByID(ctx, id)
	if err != nil || !found {
		return zero, false, err
	}
	if m.Meta().Deleted {
		return zero, false, nil
	}
	return m, true, nil
}

// SoftDeleteByID flips the deleted flag through the CAS path and returns
// the stored tombstone.
func (r *SoftRepository[M, S]) SoftDeleteByID(ctx context.Context, id domain.ID) (M, error) {
	var zero M
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	base := m.Meta()
	rotated := base.Rotated(r.now())
	rotated.Deleted = true
	stored, err := r.replace(ctx, m, base.ChangeStamp, rotated)
	if err != nil {
		return zero, err
	}
	return stored, nil
}
