package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vixbot/internal/httputil"
)

const defaultAPIBase = "https://api.telegram.org"

// MaxUploadSize is the Bot API limit for file uploads.
const MaxUploadSize = 2 << 30 // 2 GB

// Client calls the Telegram Bot API over HTTPS.
type Client struct {
	token   string
	apiBase string
	httpc   *http.Client
}

// NewClient creates a Client for a bot token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		apiBase: defaultAPIBase,
		// No client-level timeout: long polls and uploads set their own.
		httpc: httputil.NewClient(0),
	}
}

// NewClientWithBase creates a Client against a non-default API base,
// used by tests.
func NewClientWithBase(token, apiBase string) *Client {
	c := NewClient(token)
	c.apiBase = apiBase
	return c
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// apiEnvelope is the uniform Bot API response wrapper.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// call posts params as JSON to a Bot API method and decodes the result
// into v when v is non-nil.
func (c *Client) call(ctx context.Context, method string, params, v any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding %s params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp.Body, method, v)
}

func decodeEnvelope(r io.Reader, method string, v any) error {
	var env apiEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if !env.OK {
		return fmt.Errorf("%s failed: %s", method, env.Description)
	}
	if v != nil {
		if err := json.Unmarshal(env.Result, v); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates past offset. The HTTP deadline is the
// poll timeout plus slack so the server side expires first.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	params := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat with an optional inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb *InlineKeyboardMarkup) (*Message, error) {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if kb != nil {
		params["reply_markup"] = kb
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text (and keyboard) of a sent message.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, kb *InlineKeyboardMarkup) error {
	params := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if kb != nil {
		params["reply_markup"] = kb
	}
	return c.call(ctx, "editMessageText", params, nil)
}

// SendPhoto sends a photo by URL with a caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	params := map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	}
	return c.call(ctx, "sendPhoto", params, nil)
}

// SendVideo sends a video by remote URL with a caption.
func (c *Client) SendVideo(ctx context.Context, chatID int64, videoURL, caption string) error {
	params := map[string]any{
		"chat_id": chatID,
		"video":   videoURL,
		"caption": caption,
	}
	return c.call(ctx, "sendVideo", params, nil)
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}

// UploadVideo streams a local file to a chat as a video. Files over
// MaxUploadSize are rejected before any network traffic.
func (c *Client) UploadVideo(ctx context.Context, chatID int64, path, caption string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat video file: %w", err)
	}
	if info.Size() > MaxUploadSize {
		return fmt.Errorf("file %s is %d bytes, over the %d byte upload limit", path, info.Size(), MaxUploadSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening video file: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeVideoForm(mw, f, chatID, filepath.Base(path), caption)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendVideo"), pr)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("uploading video: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp.Body, "sendVideo", nil)
}

func writeVideoForm(mw *multipart.Writer, f io.Reader, chatID int64, filename, caption string) error {
	if err := mw.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("video", filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
