// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "encoding/json"

// User identifies an account on the messaging platform.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies a conversation. Private chats have the peer's user
// ID as the chat ID.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

// Message is one message in a chat.
type Message struct {
	MessageID int   `json:"message_id"`
	From      *User `json:"from,omitempty"`
	Chat      Chat  `json:"chat"`
	// Date is a unix timestamp.
	Date int64  `json:"date"`
	Text string `json:"text,omitempty"`
}

// Update is one long-poll event. Only message updates are used; other
// update kinds arrive with a nil Message and are skipped by the bot.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// apiResponse is the envelope every API call returns. Result is only
// present when OK; ErrorCode and Description only when not.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}
