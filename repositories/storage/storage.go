// Package storage holds the document-store backends the repositories run
// on. Both backends expose the same Collection contract, including the
// conditional replace the optimistic-concurrency path depends on.
package storage

import (
	"context"
	"time"
)

// Meta is the stored envelope every schema struct embeds inline. The
// change stamp is regenerated by the repository on each successful write,
// never supplied by callers.
type Meta struct {
	ID          string    `bson:"_id" json:"_id"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
	ChangeStamp string    `bson:"changeStamp" json:"changeStamp"`
	Deleted     bool      `bson:"deleted" json:"deleted"`
}

// Filter is an equality match on stored fields, e.g. {"email": ...}.
type Filter map[string]string

// Collection stores one kind of schema document keyed by id.
//
// InsertOne fails with errors.ErrConflict when the id already exists; that
// is the only driver error a backend translates, everything else passes
// through untouched. ReplaceOne performs the compare-and-swap: it matches
// on (id, changeStamp=oldStamp) and reports matched=false both for a
// missing id and for a stale stamp.
type Collection[S any] interface {
	InsertOne(ctx context.Context, id string, doc S) error
	ReplaceOne(ctx context.Context, id, oldStamp string, doc S) (matched bool, err error)
	FindOne(ctx context.Context, id string) (S, bool, error)
	FindOneBy(ctx context.Context, filter Filter) (S, bool, error)
	FindMany(ctx context.Context, ids []string) ([]S, error)
	FindManyBy(ctx context.Context, filter Filter) ([]S, error)
	DeleteOne(ctx context.Context, id string) (bool, error)
}
