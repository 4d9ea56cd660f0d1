package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
	"context"
	"log/slog"
)

type userSchema struct {
	storage.Meta `bson:",inline"`
	Email        string   `bson:"email" json:"email"`
	Name         string   `bson:"name" json:"name"`
	PasswordHash string   `bson:"passwordHash" json:"passwordHash"`
	Roles        []string `bson:"roles" json:"roles"`
}

// UserRepository persists accounts. Emails are unique in the store, a
// second registration with the same address fails with ErrConflict.
type UserRepository struct {
	*Repository[domain.User, userSchema]
}

func NewUserRepository(log *slog.Logger, col storage.Collection[userSchema]) *UserRepository {
	return &UserRepository{
		Repository: NewRepository(
			log,
			storage.CollectionUsers,
			col,
			domain.EnsureObjectID,
			domain.EnsureUser,
			func(u domain.User, b domain.Base) userSchema {
				return userSchema{
					Meta:         metaOf(b),
					Email:        u.Email,
					Name:         u.Name,
					PasswordHash: u.PasswordHash,
					Roles:        u.Roles,
				}
			},
			func(s userSchema) (domain.User, error) {
				return domain.User{
					Base:         baseOf(s.Meta),
					Email:        s.Email,
					Name:         s.Name,
					PasswordHash: s.PasswordHash,
					Roles:        s.Roles,
				}, nil
			},
		),
	}
}

// TryGetByEmail looks an account up by its login address.
func (r *UserRepository) TryGetByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var zero domain.User
	doc, found, err := r.col.FindOneBy(ctx, storage.Filter{"email": email})
	if err != nil || !found {
		return zero, false, err
	}
	u, err := r.fromSchema(doc)
	if err != nil {
		return zero, false, err
	}
	return u, true, nil
}

func NewUserCollection(store storage.Store) storage.Collection[userSchema] {
	return storage.Open[userSchema](store, storage.CollectionUsers)
}
