// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/plateforge/plateforge/lib/secret"
)

const testToken = "123456:test-bot-token"

// newTestClient starts an httptest server running handler and returns
// a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	token, err := secret.NewFromBytes([]byte(testToken))
	if err != nil {
		t.Fatalf("creating token buffer: %v", err)
	}
	t.Cleanup(func() { token.Close() })

	client, err := NewClient(ClientConfig{
		BaseURL: server.URL,
		Token:   token,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeResult(t *testing.T, writer http.ResponseWriter, result any) {
	t.Helper()
	encoded, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("encoding fake result: %v", err)
	}
	fmt.Fprintf(writer, `{"ok": true, "result": %s}`, encoded)
}

func TestGetMe(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if want := "/bot" + testToken + "/getMe"; request.URL.Path != want {
			t.Errorf("path = %q, want %q", request.URL.Path, want)
		}
		writeResult(t, writer, User{ID: 42, IsBot: true, Username: "plateforge_bot"})
	})

	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if user.ID != 42 || !user.IsBot || user.Username != "plateforge_bot" {
		t.Errorf("GetMe = %+v", user)
	}
}

func TestGetUpdates(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)
		var params map[string]any
		if err := json.Unmarshal(body, &params); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		if params["offset"] != float64(100) {
			t.Errorf("offset = %v, want 100", params["offset"])
		}
		if params["timeout"] != float64(30) {
			t.Errorf("timeout = %v, want 30", params["timeout"])
		}

		writeResult(t, writer, []Update{
			{UpdateID: 100, Message: &Message{MessageID: 7, Chat: Chat{ID: 55}, Text: "/start"}},
			{UpdateID: 101},
		})
	})

	updates, err := client.GetUpdates(context.Background(), 100, 30)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].Message == nil || updates[0].Message.Text != "/start" {
		t.Errorf("update 0 = %+v", updates[0])
	}
	if updates[1].Message != nil {
		t.Errorf("update 1 should have no message: %+v", updates[1])
	}
}

func TestSendMessage(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		var params map[string]any
		if err := json.NewDecoder(request.Body).Decode(&params); err != nil {
			t.Fatalf("decoding params: %v", err)
		}
		if params["chat_id"] != float64(55) || params["text"] != "hello" {
			t.Errorf("params = %v", params)
		}
		writeResult(t, writer, Message{MessageID: 9, Chat: Chat{ID: 55}, Text: "hello"})
	})

	message, err := client.SendMessage(context.Background(), 55, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if message.MessageID != 9 {
		t.Errorf("MessageID = %d, want 9", message.MessageID)
	}
}

func TestEditMessageText(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if !strings.HasSuffix(request.URL.Path, "/editMessageText") {
			t.Errorf("path = %q", request.URL.Path)
		}
		var params map[string]any
		if err := json.NewDecoder(request.Body).Decode(&params); err != nil {
			t.Fatalf("decoding params: %v", err)
		}
		if params["message_id"] != float64(9) {
			t.Errorf("message_id = %v, want 9", params["message_id"])
		}
		writeResult(t, writer, Message{MessageID: 9, Text: "updated"})
	})

	message, err := client.EditMessageText(context.Background(), 55, 9, "updated")
	if err != nil {
		t.Fatalf("EditMessageText: %v", err)
	}
	if message.Text != "updated" {
		t.Errorf("Text = %q", message.Text)
	}
}

func TestSendDocument(t *testing.T) {
	content := []byte{0x50, 0x4b, 0x03, 0x04, 1, 2, 3}

	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if err := request.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if got := request.FormValue("chat_id"); got != "55" {
			t.Errorf("chat_id = %q, want 55", got)
		}
		if got := request.FormValue("caption"); got != "your batch" {
			t.Errorf("caption = %q", got)
		}

		file, header, err := request.FormFile("document")
		if err != nil {
			t.Fatalf("reading document part: %v", err)
		}
		defer file.Close()
		if header.Filename != "batch.zip" {
			t.Errorf("filename = %q, want batch.zip", header.Filename)
		}
		uploaded, _ := io.ReadAll(file)
		if !bytes.Equal(uploaded, content) {
			t.Errorf("uploaded %d bytes, content mismatch", len(uploaded))
		}

		writeResult(t, writer, Message{MessageID: 12, Chat: Chat{ID: 55}})
	})

	message, err := client.SendDocument(context.Background(), 55, "batch.zip", content, "your batch")
	if err != nil {
		t.Fatalf("SendDocument: %v", err)
	}
	if message.MessageID != 12 {
		t.Errorf("MessageID = %d, want 12", message.MessageID)
	}
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
		fmt.Fprint(writer, `{"ok": false, "error_code": 403, "description": "bot was blocked by the user"}`)
	})

	_, err := client.SendMessage(context.Background(), 55, "hello")
	if err == nil {
		t.Fatal("SendMessage succeeded on an ok=false response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Code != 403 || !strings.Contains(apiErr.Description, "blocked") {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !IsAPIError(err, 403) {
		t.Error("IsAPIError(err, 403) = false")
	}
	if IsAPIError(err, 429) {
		t.Error("IsAPIError(err, 429) = true")
	}
}

func TestNonEnvelopeResponse(t *testing.T) {
	client := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(writer, "<html>upstream error</html>")
	})

	_, err := client.GetMe(context.Background())
	if err == nil {
		t.Fatal("GetMe succeeded on a non-JSON response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error does not carry the status code: %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	token, err := secret.NewFromBytes([]byte(testToken))
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	defer token.Close()

	if _, err := NewClient(ClientConfig{Token: token}); err == nil {
		t.Error("NewClient accepted an empty BaseURL")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "https://api.telegram.org"}); err == nil {
		t.Error("NewClient accepted a nil token")
	}
}
