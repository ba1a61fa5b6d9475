package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var params map[string]any
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if params["text"] != "hello" || params["chat_id"] != float64(42) {
			t.Errorf("params = %v", params)
		}
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 7, "chat": {"id": 42}, "text": "hello"}}`)
	}))
	defer srv.Close()

	c := NewClientWithBase("test-token", srv.URL)
	msg, err := c.SendMessage(context.Background(), 42, "hello", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.MessageID != 7 || msg.Chat.ID != 42 {
		t.Errorf("message = %+v", msg)
	}
}

func TestSendMessageKeyboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			ReplyMarkup InlineKeyboardMarkup `json:"reply_markup"`
		}
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		rows := params.ReplyMarkup.InlineKeyboard
		if len(rows) != 1 || len(rows[0]) != 1 || rows[0][0].CallbackData != "TMDB|0" {
			t.Errorf("keyboard = %+v", rows)
		}
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 1, "chat": {"id": 1}}}`)
	}))
	defer srv.Close()

	kb := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		Row(InlineKeyboardButton{Text: "Pick", CallbackData: "TMDB|0"}),
	}}
	c := NewClientWithBase("t", srv.URL)
	if _, err := c.SendMessage(context.Background(), 1, "x", kb); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "description": "Bad Request: chat not found"}`)
	}))
	defer srv.Close()

	c := NewClientWithBase("t", srv.URL)
	_, err := c.SendMessage(context.Background(), 1, "x", nil)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want the API description", err)
	}
}

func TestGetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if params["offset"] != float64(5) {
			t.Errorf("offset = %v, want 5", params["offset"])
		}
		fmt.Fprint(w, `{"ok": true, "result": [
			{"update_id": 5, "message": {"message_id": 1, "from": {"id": 9}, "chat": {"id": 9}, "text": "/start"}},
			{"update_id": 6, "callback_query": {"id": "cb1", "from": {"id": 9}, "data": "CANCEL"}}
		]}`)
	}))
	defer srv.Close()

	c := NewClientWithBase("t", srv.URL)
	updates, err := c.GetUpdates(context.Background(), 5, 0)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Errorf("update 0 = %+v", updates[0])
	}
	if updates[1].CallbackQuery == nil || updates[1].CallbackQuery.Data != "CANCEL" {
		t.Errorf("update 1 = %+v", updates[1])
	}
}

func TestUploadVideo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "42" {
			t.Errorf("chat_id = %q", got)
		}
		if got := r.FormValue("caption"); got != "a clip" {
			t.Errorf("caption = %q", got)
		}
		f, hdr, err := r.FormFile("video")
		if err != nil {
			t.Fatalf("video part: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "clip.mp4" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		fmt.Fprint(w, `{"ok": true, "result": {}}`)
	}))
	defer srv.Close()

	c := NewClientWithBase("t", srv.URL)
	if err := c.UploadVideo(context.Background(), 42, path, "a clip"); err != nil {
		t.Fatalf("UploadVideo: %v", err)
	}
}

func TestUploadVideoMissingFile(t *testing.T) {
	c := NewClientWithBase("t", "http://127.0.0.1:1")
	if err := c.UploadVideo(context.Background(), 1, "/does/not/exist.mp4", ""); err == nil {
		t.Error("expected an error for a missing file")
	}
}
