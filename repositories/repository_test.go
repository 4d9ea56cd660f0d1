package repositories

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/repositories/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) storage.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewBadgerStore(db)
}

func newConversations(t *testing.T) *ConversationRepository {
	return NewConversationRepository(slog.Default(), NewConversationCollection(openStore(t)))
}

func Test_Insert_Then_Get_Roundtrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)
	conversation := domain.NewConversation("design review")

	_, err := repository.Insert(ctx, conversation)
	req.NoError(err)

	fetched, err := repository.GetByID(ctx, conversation.ID)
	req.NoError(err)
	req.Equal(conversation.Title, fetched.Title)
	req.Equal(conversation.ChangeStamp, fetched.ChangeStamp)
}

func Test_Insert_Duplicate_Id_Conflicts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)
	conversation := domain.NewConversation("design review")

	_, err := repository.Insert(ctx, conversation)
	req.NoError(err)

	_, err = repository.Insert(ctx, conversation)
	req.ErrorIs(err, apperrors.ErrConflict)
}

func Test_Update_Rotates_Change_Stamp(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)
	conversation := domain.NewConversation("design review")
	_, err := repository.Insert(ctx, conversation)
	req.NoError(err)

	updated, err := repository.Update(ctx, conversation.WithTitle("sprint review"))
	req.NoError(err)

	req.Equal("sprint review", updated.Title)
	req.NotEqual(conversation.ChangeStamp, updated.ChangeStamp)
	fetched, err := repository.GetByID(ctx, conversation.ID)
	req.NoError(err)
	req.Equal(updated.ChangeStamp, fetched.ChangeStamp)
}

func Test_Update_With_Stale_Stamp_Conflicts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)
	stale := domain.NewConversation("design review")
	_, err := repository.Insert(ctx, stale)
	req.NoError(err)
	fresh, err := repository.Update(ctx, stale.WithTitle("sprint review"))
	req.NoError(err)

	// stale still carries the stamp the first update consumed
	_, err = repository.Update(ctx, stale.WithTitle("retro"))

	req.ErrorIs(err, apperrors.ErrConflict)
	fetched, err := repository.GetByID(ctx, stale.ID)
	req.NoError(err)
	req.Equal(fresh.Title, fetched.Title)
	req.Equal(fresh.ChangeStamp, fetched.ChangeStamp)
}

func Test_Update_Missing_Record_Conflicts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)

	_, err := repository.Update(ctx, domain.NewConversation("never inserted"))

	req.ErrorIs(err, apperrors.ErrConflict)
}

func Test_Get_Missing_Record_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)

	_, err := repository.GetByID(ctx, domain.NewID())
	req.ErrorIs(err, apperrors.ErrNotFound)

	_, found, err := repository.TryGetByID(ctx, domain.NewID())
	req.NoError(err)
	req.False(found)
}

func Test_Malformed_Id_Rejected_Before_Store_Access(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)

	_, err := repository.GetByID(ctx, "not-an-object-id")
	req.ErrorIs(err, apperrors.ErrArgument)

	err = repository.DeleteByID(ctx, "")
	req.ErrorIs(err, apperrors.ErrArgument)
}

func Test_Get_By_Ids_Returns_Existing_Subset(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)
	first := domain.NewConversation("first")
	second := domain.NewConversation("second")
	_, err := repository.Insert(ctx, first)
	req.NoError(err)
	_, err = repository.Insert(ctx, second)
	req.NoError(err)

	fetched, err := repository.GetByIDs(ctx, []domain.ID{first.ID, domain.NewID(), second.ID})

	req.NoError(err)
	req.Len(fetched, 2)
}

func Test_Delete_Missing_Record_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newConversations(t)

	err := repository.DeleteByID(ctx, domain.NewID())

	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_Soft_Delete_Hides_Message_From_Reads(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(slog.Default(), NewMessageCollection(openStore(t)))
	conversationID := domain.NewID()
	message := domain.NewUserMessage(conversationID, "hello", domain.Author{UserID: domain.NewID(), Name: "alice"})
	_, err := repository.Insert(ctx, message)
	req.NoError(err)

	tombstone, err := repository.SoftDeleteByID(ctx, message.ID)
	req.NoError(err)
	req.True(tombstone.Deleted)

	_, err = repository.GetByID(ctx, message.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
	_, found, err := repository.TryGetByID(ctx, message.ID)
	req.NoError(err)
	req.False(found)

	kept, err := repository.GetByIDIncludingDeleted(ctx, message.ID)
	req.NoError(err)
	req.Equal("hello", kept.Content)
	req.True(kept.Deleted)
}

func Test_Soft_Delete_Rides_The_Conditional_Replace(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(slog.Default(), NewMessageCollection(openStore(t)))
	message := domain.NewUserMessage(domain.NewID(), "hello", domain.Author{UserID: domain.NewID(), Name: "alice"})
	_, err := repository.Insert(ctx, message)
	req.NoError(err)

	first, err := repository.SoftDeleteByID(ctx, message.ID)
	req.NoError(err)
	req.NotEqual(message.ChangeStamp, first.ChangeStamp)

	// already deleted, the live read inside SoftDeleteByID misses
	_, err = repository.SoftDeleteByID(ctx, message.ID)
	req.ErrorIs(err, apperrors.ErrNotFound)
}

func Test_Get_By_Conversation_Orders_And_Limits(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(slog.Default(), NewMessageCollection(openStore(t)))
	conversationID := domain.NewID()
	author := domain.Author{UserID: domain.NewID(), Name: "alice"}
	contents := []string{"one", "two", "three"}
	for _, content := range contents {
		_, err := repository.Insert(ctx, domain.NewUserMessage(conversationID, content, author))
		req.NoError(err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := repository.Insert(ctx, domain.NewSystemMessage(domain.NewID(), "other conversation"))
	req.NoError(err)

	all, err := repository.GetByConversation(ctx, conversationID, 0)
	req.NoError(err)
	req.Len(all, len(contents))
	req.Equal("one", all[0].Content)
	req.Equal("three", all[2].Content)

	newest, err := repository.GetByConversation(ctx, conversationID, 2)
	req.NoError(err)
	req.Len(newest, 2)
	req.Equal("two", newest[0].Content)
	req.Equal("three", newest[1].Content)
}

func Test_Try_Get_User_By_Email(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(slog.Default(), NewUserCollection(openStore(t)))
	user := domain.NewUser("alice@example.org", "Alice", "hash", []string{"member"})
	_, err := repository.Insert(ctx, user)
	req.NoError(err)

	fetched, found, err := repository.TryGetByEmail(ctx, "alice@example.org")
	req.NoError(err)
	req.True(found)
	req.Equal(user.ID, fetched.ID)

	_, found, err = repository.TryGetByEmail(ctx, "bob@example.org")
	req.NoError(err)
	req.False(found)
}

func Test_Try_Get_Subscription_By_Conversation_And_User(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewSubscriptionRepository(slog.Default(), NewSubscriptionCollection(openStore(t)))
	subscription := domain.NewSubscription(domain.NewID(), domain.NewID())
	_, err := repository.Insert(ctx, subscription)
	req.NoError(err)

	fetched, found, err := repository.TryGetByConversationAndUser(ctx, subscription.ConversationID, subscription.UserID)
	req.NoError(err)
	req.True(found)
	req.Equal(subscription.ID, fetched.ID)

	_, found, err = repository.TryGetByConversationAndUser(ctx, subscription.ConversationID, domain.NewID())
	req.NoError(err)
	req.False(found)
}

func Test_Access_Token_Id_Format_Enforced(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewAccessTokenRepository(slog.Default(), NewAccessTokenCollection(openStore(t)))
	token, err := domain.NewAccessToken(domain.NewID(), time.Hour)
	req.NoError(err)

	_, err = repository.Insert(ctx, token)
	req.NoError(err)

	fetched, err := repository.GetByID(ctx, token.ID)
	req.NoError(err)
	req.Equal(token.UserID, fetched.UserID)
	req.True(fetched.Valid(time.Now()))

	_, err = repository.GetByID(ctx, "short-token")
	req.ErrorIs(err, apperrors.ErrArgument)
}
