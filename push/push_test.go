package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
)

func TestClient_Send(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"data":{"status":"ok"}}`))
	}))
	defer srv.Close()

	c := &Client{
		AccessToken: "expo-token",
		Endpoint:    srv.URL,
		Logger:      slogt.New(t),
	}

	err := c.Send(context.Background(), Notification{
		To:       "ExponentPushToken[abc]",
		Title:    "New comment",
		Body:     "hello",
		ThreadID: "thread-1",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAuth != "Bearer expo-token" {
		t.Errorf("Authorization = %q, want Bearer expo-token", gotAuth)
	}

	want := map[string]any{
		"to":    "ExponentPushToken[abc]",
		"sound": "default",
		"body":  "hello",
		"title": "New comment",
		"data": map[string]any{
			"threadId": "thread-1",
		},
	}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("Payload mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Send_NoToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := &Client{Endpoint: srv.URL}

	if err := c.Send(context.Background(), Notification{To: "x"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if called {
		t.Error("Send() hit the endpoint without an access token")
	}
}
