package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
	"log/slog"
	"time"
)

type accessTokenSchema struct {
	storage.Meta `bson:",inline"`
	TTLSeconds   int64  `bson:"ttlSeconds" json:"ttlSeconds"`
	UserID       string `bson:"userId" json:"userId"`
}

// AccessTokenRepository persists bearer credentials. The token string is
// the document id, so validating a presented token is a single read.
type AccessTokenRepository struct {
	*Repository[domain.AccessToken, accessTokenSchema]
}

func NewAccessTokenRepository(log *slog.Logger, col storage.Collection[accessTokenSchema]) *AccessTokenRepository {
	return &AccessTokenRepository{
		Repository: NewRepository(
			log,
			storage.CollectionAccessTokens,
			col,
			domain.EnsureTokenID,
			domain.EnsureAccessToken,
			func(t domain.AccessToken, b domain.Base) accessTokenSchema {
				return accessTokenSchema{
					Meta:       metaOf(b),
					TTLSeconds: int64(t.TTL / time.Second),
					UserID:     t.UserID.String(),
				}
			},
			func(s accessTokenSchema) (domain.AccessToken, error) {
				return domain.AccessToken{
					Base:   baseOf(s.Meta),
					TTL:    time.Duration(s.TTLSeconds) * time.Second,
					UserID: domain.ID(s.UserID),
				}, nil
			},
		),
	}
}

func NewAccessTokenCollection(store storage.Store) storage.Collection[accessTokenSchema] {
	return storage.Open[accessTokenSchema](store, storage.CollectionAccessTokens)
}
