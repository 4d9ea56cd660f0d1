package internal

import (
	"chat-relay/runtime"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func Test_Inspect_Page(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { db.Close() })

	doc := []byte(`{"_id":"68b0c5b2a7e14f3d9c1a2b3c","updatedAt":"2026-08-29T10:00:00Z","changeStamp":"stamp-1","deleted":false,"title":"standup"}`)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("conversations:68b0c5b2a7e14f3d9c1a2b3c"), doc)
	})
	req.NoError(err)

	registry := runtime.NewRegistry()
	req.NoError(registry.Add("conn-1", "user-1", ""))
	req.NoError(registry.Add("conn-2", "", "conv-1"))
	req.NoError(registry.Add("conn-3", "", "conv-1"))

	server := httptest.NewServer(InspectHandler(db, registry))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/inspect?prefix=conversations:")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	page := string(body)
	req.Contains(page, "68b0c5b2a7e14f3d9c1a2b3c")
	req.Contains(page, "stamp-1")
	req.Contains(page, "1 user-scoped")
	req.Contains(page, "2 conversation-scoped")
}
