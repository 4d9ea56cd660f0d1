package storage

import (
	apperrors "chat-relay/errors"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCollection is the embedded backend. One key per document,
// "<collection>:<id>", JSON-encoded. The conditional replace runs inside
// a single transaction, which gives it the same at-most-one-writer-wins
// behavior as the Mongo filter.
type BadgerCollection[S any] struct {
	db   *badger.DB
	name string
}

func NewBadgerCollection[S any](db *badger.DB, name string) *BadgerCollection[S] {
	return &BadgerCollection[S]{db: db, name: name}
}

func (c *BadgerCollection[S]) key(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", c.name, id))
}

func (c *BadgerCollection[S]) prefix() []byte {
	return []byte(c.name + ":")
}

func (c *BadgerCollection[S]) InsertOne(ctx context.Context, id string, doc S) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(c.key(id))
		if err == nil {
			return fmt.Errorf("%w: document %q already exists in %q", apperrors.ErrConflict, id, c.name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(c.key(id), payload)
	})
}

func (c *BadgerCollection[S]) ReplaceOne(ctx context.Context, id, oldStamp string, doc S) (bool, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	matched := false
	err = c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var stored struct {
			ChangeStamp string `json:"changeStamp"`
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return err
		}
		if stored.ChangeStamp != oldStamp {
			return nil
		}
		matched = true
		return txn.Set(c.key(id), payload)
	})
	return matched, err
}

func (c *BadgerCollection[S]) FindOne(ctx context.Context, id string) (S, bool, error) {
	var doc S
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
	})
	return doc, found, err
}

func (c *BadgerCollection[S]) FindOneBy(ctx context.Context, filter Filter) (S, bool, error) {
	docs, err := c.FindManyBy(ctx, filter)
	var doc S
	if err != nil {
		return doc, false, err
	}
	if len(docs) == 0 {
		return doc, false, nil
	}
	return docs[0], true, nil
}

func (c *BadgerCollection[S]) FindMany(ctx context.Context, ids []string) ([]S, error) {
	var docs []S
	err := c.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(c.key(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			var doc S
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			}); err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		return nil
	})
	return docs, err
}

// FindManyBy scans the collection prefix. Fine for the embedded backend's
// scale; the Mongo backend serves the same filter from an index.
func (c *BadgerCollection[S]) FindManyBy(ctx context.Context, filter Filter) ([]S, error) {
	type hit struct {
		doc       S
		createdAt time.Time
	}
	var hits []hit
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(c.prefix()); it.ValidForPrefix(c.prefix()); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var fields map[string]any
				if err := json.Unmarshal(val, &fields); err != nil {
					return err
				}
				for field, want := range filter {
					if got, ok := fields[field].(string); !ok || got != want {
						return nil
					}
				}
				var h hit
				if err := json.Unmarshal(val, &h.doc); err != nil {
					return err
				}
				if raw, ok := fields["createdAt"].(string); ok {
					h.createdAt, _ = time.Parse(time.RFC3339Nano, raw)
				}
				hits = append(hits, h)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].createdAt.Before(hits[j].createdAt) })
	docs := make([]S, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return docs, nil
}

func (c *BadgerCollection[S]) DeleteOne(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(c.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		deleted = true
		return txn.Delete(c.key(id))
	})
	return deleted, err
}
