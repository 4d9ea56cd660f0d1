package internal

import (
	"chat-relay/contract"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

// Badger has no shell of its own, so this little HTTP view stands in for
// one when the embedded backend is active. Mongo users have mongosh.

type InspectRow struct {
	Key         string
	ID          string
	UpdatedAt   string
	ChangeStamp string
	Deleted     bool
	Size        int
}

type PageData struct {
	Prefix                  string
	UserConnections         int
	ConversationConnections int
	Items                   []InspectRow
}

var inspectTmpl = template.Must(template.New("inspect").Parse(`<!DOCTYPE html>
<html><head><title>store inspector</title>
<style>body{font-family:monospace}table{border-collapse:collapse}td,th{border:1px solid #999;padding:4px 8px}</style>
</head><body>
<p>live connections: {{.UserConnections}} user-scoped, {{.ConversationConnections}} conversation-scoped</p>
<h2>documents under prefix "{{.Prefix}}"</h2>
<table>
<tr><th>key</th><th>id</th><th>updatedAt</th><th>changeStamp</th><th>deleted</th><th>bytes</th></tr>
{{range .Items}}<tr><td>{{.Key}}</td><td>{{.ID}}</td><td>{{.UpdatedAt}}</td><td>{{.ChangeStamp}}</td><td>{{.Deleted}}</td><td>{{.Size}}</td></tr>
{{end}}</table>
</body></html>`))

// StartDebugServer serves a read-only view of the embedded store and the
// live connection counters on /inspect?prefix=<collection>:.
func StartDebugServer(db *badger.DB, registry contract.IRegistry, port int) {
	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), InspectHandler(db, registry))
	}()
}

// InspectHandler is the debug mux, exposed separately so it can be
// served over httptest.
func InspectHandler(db *badger.DB, registry contract.IRegistry) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "conversations:"
		}

		data := PageData{
			Prefix:                  prefix,
			UserConnections:         len(registry.GetAllUserConnections()),
			ConversationConnections: len(registry.GetAllConversationConnections()),
		}
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = inspectTmpl.Execute(w, data)
	})

	return mux
}

func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{Key: key, Size: len(val)}

	var meta struct {
		ID          string `json:"_id"`
		UpdatedAt   string `json:"updatedAt"`
		ChangeStamp string `json:"changeStamp"`
		Deleted     bool   `json:"deleted"`
	}
	if err := json.Unmarshal(val, &meta); err == nil {
		row.ID = meta.ID
		row.UpdatedAt = meta.UpdatedAt
		row.ChangeStamp = meta.ChangeStamp
		row.Deleted = meta.Deleted
	}
	return row
}
