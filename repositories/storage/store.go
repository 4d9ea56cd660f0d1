package storage

import (
	badger "github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Store is the backend handle the repositories open their collections
// from. Exactly one of the two fields is set, chosen by configuration at
// startup.
type Store struct {
	Mongo  *mongo.Database
	Badger *badger.DB
}

func NewMongoStore(db *mongo.Database) Store { return Store{Mongo: db} }

func NewBadgerStore(db *badger.DB) Store { return Store{Badger: db} }

// Open binds a schema type to a named collection on whichever backend the
// store carries.
func Open[S any](store Store, name string) Collection[S] {
	if store.Mongo != nil {
		return NewMongoCollection[S](store.Mongo, name)
	}
	return NewBadgerCollection[S](store.Badger, name)
}
