// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot is the conversational front-end. It long-polls the chat
// API, walks each chat through a short dialog collecting batch
// options, runs the batch, and returns the generated archive as a
// document upload. In-progress dialogs live in a session store with a
// fixed TTL.
package bot
