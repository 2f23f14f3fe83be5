// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi serves the VIP record store over HTTP. Reads are
// open; mutations require the admin code in the X-Admin-Code header,
// compared in constant time.
package httpapi
