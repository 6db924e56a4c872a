package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(WithToken("test-token"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestGetMe(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getMe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"id": 42, "is_bot": true, "username": "intention_bot"},
		})
	})

	me, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe failed: %v", err)
	}
	if me.ID != 42 || me.Username != "intention_bot" {
		t.Errorf("unexpected identity: %+v", me)
	}
}

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{"update_id": 10, "message": map[string]any{"message_id": 1, "text": "hi", "chat": map[string]any{"id": 5}}},
				{"update_id": 11, "callback_query": map[string]any{"id": "cb1", "data": "intent_select:3"}},
			},
		})
	})

	updates, next, err := client.GetUpdates(context.Background(), 10, time.Second)
	if err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if next != 12 {
		t.Errorf("expected next offset 12, got %d", next)
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "intent_select:3" {
		t.Errorf("callback query not decoded: %+v", updates[1])
	}
}

func TestSendMessageErrorMapping(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": false, "error_code": 400, "description": "Bad Request: chat not found",
		})
	})

	err := client.SendMessage(context.Background(), 5, "hello", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	reqErr, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("expected *RequestError, got %T", err)
	}
	if reqErr.ErrorCode != 400 || reqErr.Description == "" {
		t.Errorf("unexpected error detail: %+v", reqErr)
	}
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty text")
	})
	if err := client.SendMessage(context.Background(), 5, "   ", nil); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestSendMessageAttachesInlineKeyboard(t *testing.T) {
	var captured map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": map[string]any{}})
	})

	opts := &SendOptions{InlineKeyboard: &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{{Text: "Yes", CallbackData: "free_text_yes"}}},
	}}
	if err := client.SendMessage(context.Background(), 5, "confirm?", opts); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	markup, ok := captured["reply_markup"].(map[string]any)
	if !ok {
		t.Fatalf("reply_markup missing from request: %v", captured)
	}
	if _, ok := markup["inline_keyboard"]; !ok {
		t.Errorf("inline_keyboard missing: %v", markup)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user *User
		want string
	}{
		{nil, ""},
		{&User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{&User{FirstName: "Ada"}, "Ada"},
		{&User{Username: "ada"}, "@ada"},
		{&User{}, ""},
	}
	for _, c := range cases {
		if got := DisplayName(c.user); got != c.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", c.user, got, c.want)
		}
	}
}

func TestLargestPhoto(t *testing.T) {
	m := &Message{Photo: []PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 800, Height: 600},
		{FileID: "medium", Width: 320, Height: 240},
	}}
	if got := LargestPhoto(m); got != "large" {
		t.Errorf("expected large, got %q", got)
	}
	if got := LargestPhoto(&Message{}); got != "" {
		t.Errorf("expected empty for no photo, got %q", got)
	}
}
