package repositories

import (
	"chat-relay/domain"
	"chat-relay/repositories/storage"
)

func metaOf(b domain.Base) storage.Meta {
	return storage.Meta{
		ID:          b.ID.String(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		ChangeStamp: b.ChangeStamp,
		Deleted:     b.Deleted,
	}
}

func baseOf(m storage.Meta) domain.Base {
	return domain.Base{
		ID:          domain.ID(m.ID),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ChangeStamp: m.ChangeStamp,
		Deleted:     m.Deleted,
	}
}
