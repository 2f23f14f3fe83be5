// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat is a hand-rolled client for the bot messaging API. It
// covers only the calls the bot front-end needs: identity lookup,
// long-poll update fetching, sending and editing text messages, and
// uploading a generated document.
package chat
