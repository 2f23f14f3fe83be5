// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/plateforge/plateforge/lib/clock"
	"github.com/plateforge/plateforge/lib/secret"
	"github.com/plateforge/plateforge/viplist"
)

// AdminCodeHeader carries the admin code on mutating requests.
const AdminCodeHeader = "X-Admin-Code"

// maxRequestBodySize bounds VIP creation payloads. A record is a name
// and a note; anything near this limit is abuse.
const maxRequestBodySize = 1 << 20

// HandlerConfig configures the API handler.
type HandlerConfig struct {
	// Store is the VIP record store. Required.
	Store viplist.Store

	// AdminCode gates mutating routes. Required. The handler borrows
	// the buffer; the caller keeps it alive for the handler's
	// lifetime.
	AdminCode *secret.Buffer

	// Clock supplies record creation times. Nil means clock.Real().
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Handler routes the VIP API:
//
//	GET    /v1/vips        list records
//	POST   /v1/vips        create a record       (admin)
//	GET    /v1/vips/{id}   fetch one record
//	DELETE /v1/vips/{id}   delete a record       (admin)
type Handler struct {
	store viplist.Store
	clock clock.Clock
	log   *slog.Logger
	mux   *http.ServeMux

	// adminDigest is the SHA-256 of the admin code. Comparing
	// digests keeps the comparison constant-time for inputs of any
	// length.
	adminDigest [sha256.Size]byte
}

// NewHandler creates the API handler. Panics on missing required
// config — this is a wiring error, not a runtime condition.
func NewHandler(config HandlerConfig) *Handler {
	if config.Store == nil {
		panic("httpapi.Handler: Store is required")
	}
	if config.AdminCode == nil {
		panic("httpapi.Handler: AdminCode is required")
	}
	if config.Logger == nil {
		panic("httpapi.Handler: Logger is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	handler := &Handler{
		store:       config.Store,
		clock:       clk,
		log:         config.Logger,
		mux:         http.NewServeMux(),
		adminDigest: sha256.Sum256(config.AdminCode.Bytes()),
	}

	handler.mux.HandleFunc("GET /v1/vips", handler.listRecords)
	handler.mux.HandleFunc("GET /v1/vips/{id}", handler.getRecord)
	handler.mux.HandleFunc("POST /v1/vips", handler.requireAdmin(handler.createRecord))
	handler.mux.HandleFunc("DELETE /v1/vips/{id}", handler.requireAdmin(handler.deleteRecord))
	return handler
}

func (h *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	h.mux.ServeHTTP(writer, request)
}

// requireAdmin rejects requests whose X-Admin-Code header does not
// match the configured code. 401 with no detail — the response must
// not reveal whether the header was absent or wrong.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		presented := sha256.Sum256([]byte(request.Header.Get(AdminCodeHeader)))
		if subtle.ConstantTimeCompare(presented[:], h.adminDigest[:]) != 1 {
			h.log.Warn("admin gate rejected request",
				"method", request.Method,
				"path", request.URL.Path,
				"remote_addr", request.RemoteAddr,
			)
			http.Error(writer, "", http.StatusUnauthorized)
			return
		}
		next(writer, request)
	}
}

func (h *Handler) listRecords(writer http.ResponseWriter, request *http.Request) {
	records, err := h.store.List()
	if err != nil {
		h.log.Error("listing VIP records", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	// An empty list serializes as [], not null.
	if records == nil {
		records = []viplist.Record{}
	}
	h.writeJSON(writer, http.StatusOK, records)
}

func (h *Handler) getRecord(writer http.ResponseWriter, request *http.Request) {
	id, ok := h.parseID(writer, request)
	if !ok {
		return
	}

	record, err := h.store.Get(id)
	if errors.Is(err, viplist.ErrNotFound) {
		http.Error(writer, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("fetching VIP record", "id", id, "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	h.writeJSON(writer, http.StatusOK, record)
}

// createRequest is the POST /v1/vips payload.
type createRequest struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

func (h *Handler) createRecord(writer http.ResponseWriter, request *http.Request) {
	body, err := io.ReadAll(io.LimitReader(request.Body, maxRequestBodySize))
	if err != nil {
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	var payload createRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(writer, "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		http.Error(writer, "name is required", http.StatusBadRequest)
		return
	}

	record := viplist.Record{
		ID:      uuid.New(),
		Name:    payload.Name,
		Note:    strings.TrimSpace(payload.Note),
		AddedAt: h.clock.Now().UTC(),
	}
	if err := h.store.Put(record); err != nil {
		h.log.Error("storing VIP record", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	h.log.Info("VIP record created", "id", record.ID, "name", record.Name)
	h.writeJSON(writer, http.StatusCreated, record)
}

func (h *Handler) deleteRecord(writer http.ResponseWriter, request *http.Request) {
	id, ok := h.parseID(writer, request)
	if !ok {
		return
	}

	err := h.store.Delete(id)
	if errors.Is(err, viplist.ErrNotFound) {
		http.Error(writer, "record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("deleting VIP record", "id", id, "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	h.log.Info("VIP record deleted", "id", id)
	writer.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(writer http.ResponseWriter, request *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(request.PathValue("id"))
	if err != nil {
		http.Error(writer, "record ID is not a valid UUID", http.StatusBadRequest)
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *Handler) writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		h.log.Error("writing API response", "error", err)
	}
}
