package messaging

import (
	"testing"

	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/telegram"
)

func TestConvertUpdateText(t *testing.T) {
	ev, ok := convertUpdate(telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: 5},
			From: &telegram.User{ID: 77, FirstName: "Ada"},
			Text: "  run 5k  ",
		},
	})
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Kind != models.EventText || ev.Text != "run 5k" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.ChatID != 5 || ev.TelegramID != 77 {
		t.Errorf("ids not carried: %+v", ev)
	}
	if ev.TraceID == "" {
		t.Error("expected a trace id")
	}
}

func TestConvertUpdateCommand(t *testing.T) {
	ev, ok := convertUpdate(telegram.Update{
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: 5},
			From: &telegram.User{ID: 77},
			Text: "/start",
		},
	})
	if !ok || ev.Kind != models.EventCommand {
		t.Errorf("expected command event, got %+v (ok=%v)", ev, ok)
	}
}

func TestConvertUpdatePhotoPicksLargest(t *testing.T) {
	ev, ok := convertUpdate(telegram.Update{
		Message: &telegram.Message{
			Chat:    &telegram.Chat{ID: 5},
			From:    &telegram.User{ID: 77},
			Caption: "sunset run",
			Photo: []telegram.PhotoSize{
				{FileID: "small", Width: 90, Height: 90},
				{FileID: "large", Width: 800, Height: 600},
			},
		},
	})
	if !ok || ev.Kind != models.EventPhoto {
		t.Fatalf("expected photo event, got %+v (ok=%v)", ev, ok)
	}
	if ev.PhotoFileID != "large" || ev.Text != "sunset run" {
		t.Errorf("unexpected photo event: %+v", ev)
	}
}

func TestConvertUpdateCallback(t *testing.T) {
	ev, ok := convertUpdate(telegram.Update{
		CallbackQuery: &telegram.CallbackQuery{
			ID:      "cb9",
			From:    &telegram.User{ID: 77},
			Message: &telegram.Message{Chat: &telegram.Chat{ID: 5}},
			Data:    "intent_select:3",
		},
	})
	if !ok || ev.Kind != models.EventCallback {
		t.Fatalf("expected callback event, got %+v (ok=%v)", ev, ok)
	}
	if ev.CallbackID != "cb9" || ev.CallbackData != "intent_select:3" {
		t.Errorf("callback fields not carried: %+v", ev)
	}
}

func TestConvertUpdateDropsNoise(t *testing.T) {
	cases := []telegram.Update{
		{}, // empty update
		{Message: &telegram.Message{Chat: &telegram.Chat{ID: 5}}},                                        // no sender
		{Message: &telegram.Message{Chat: &telegram.Chat{ID: 5}, From: &telegram.User{ID: 1, IsBot: true}, Text: "x"}}, // bot echo
		{Message: &telegram.Message{Chat: &telegram.Chat{ID: 5}, From: &telegram.User{ID: 1}}},           // no content
	}
	for i, u := range cases {
		if _, ok := convertUpdate(u); ok {
			t.Errorf("case %d: expected update to be dropped", i)
		}
	}
}
