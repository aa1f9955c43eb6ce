// Package http exposes the ring store over HTTP: the raw byte query contract
// on /query, the authority write path on /v1/head, and JSON convenience reads
// under /v1.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/compose-network/beaconroots/server/api"
	"github.com/compose-network/beaconroots/x/authority"
	"github.com/compose-network/beaconroots/x/ringstore"
	"github.com/compose-network/beaconroots/x/wire"
)

// maxQueryBody bounds the raw query read; both request shapes fit well under it.
const maxQueryBody = 64

type Handler struct {
	store  *ringstore.Store
	writer authority.Writer
	log    zerolog.Logger
}

func NewHandler(store *ringstore.Store, writer authority.Writer, log zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		writer: writer,
		log:    log.With().Str("component", "ringstore-http").Logger(),
	}
}

// Register binds stdlib mux routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(routeQuery, h.handleQuery)
	mux.HandleFunc(routeHead, h.handleHead)
}

// RegisterMux binds gorilla/mux routes.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeQuery, h.handleQuery).
		Methods(http.MethodPost).
		Name(routeNameQuery)
	r.HandleFunc(routeHead, h.handleHead).
		Methods(http.MethodPost).
		Name(routeNameHead)
	r.HandleFunc(routeRootByTimestamp, h.handleRootByTimestamp).
		Methods(http.MethodGet).
		Name(routeNameRootByTimestamp)
	r.HandleFunc(routeAddressByStep, h.handleAddressByStep).
		Methods(http.MethodGet).
		Name(routeNameAddressByStep)
}

// handleQuery serves the raw byte contract. The body is the entire request:
// 32 bytes select a root-by-timestamp lookup, 36 bytes (selector + word) an
// address-by-step lookup. Responses are raw words; failures carry no body.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req, err := wire.DecodeRequest(payload)
	if err != nil {
		// Malformed payloads never reach the store.
		h.log.Debug().Int("payload_len", len(payload)).Msg("Rejected malformed query")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch req.Op {
	case wire.OpRootByTimestamp:
		root, err := h.store.RootByTimestamp(&req.Arg)
		if err != nil {
			if !errors.Is(err, ringstore.ErrNotFound) {
				h.log.Error().Err(err).Msg("Root lookup failed")
			}
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.writeWord(w, wire.EncodeRoot(root))

	case wire.OpAddressByStep:
		// Unvalidated by contract: always answers with the slot's occupant.
		addr := h.store.AddressByStep(&req.Arg)
		h.writeWord(w, wire.EncodeAddress(addr))

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (h *Handler) writeWord(w http.ResponseWriter, word []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(word)
}

// handleHead accepts one head announcement from the write authority.
func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := h.writer.Authorize(r.Header.Get(AuthorityTokenHeader)); err != nil {
		apicommon.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "invalid authority token", nil)
		return
	}

	var req headRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", nil)
		return
	}

	step, err := parseU256(req.Step)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_step", err.Error(), nil)
		return
	}

	timestamp, err := parseU256(req.Timestamp)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_timestamp", err.Error(), nil)
		return
	}

	rootBytes, err := hexutil.Decode(req.Root)
	if err != nil || len(rootBytes) != common.HashLength {
		apicommon.WriteError(
			w, r,
			http.StatusBadRequest,
			"invalid_root",
			fmt.Sprintf("expect %d-byte hash", common.HashLength),
			nil,
		)
		return
	}

	if !common.IsHexAddress(req.Address) {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_address", "bad address", nil)
		return
	}

	head := authority.Head{
		Step:      *step,
		Timestamp: *timestamp,
		Root:      common.BytesToHash(rootBytes),
		Address:   common.HexToAddress(req.Address),
	}

	if err := h.writer.Apply(r.Context(), head); err != nil {
		switch {
		case errors.Is(err, authority.ErrOrderingViolation):
			apicommon.WriteError(w, r, http.StatusConflict, "ordering_violation", err.Error(), nil)
		case errors.Is(err, authority.ErrInvalidHead):
			apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_head", err.Error(), nil)
		default:
			apicommon.WriteError(w, r, http.StatusInternalServerError, "apply_failed", err.Error(), nil)
		}
		return
	}

	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "recorded",
		"step":   step.Dec(),
	})
}

// handleRootByTimestamp is the JSON convenience form of the validated read.
func (h *Handler) handleRootByTimestamp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	timestamp, err := parseU256(vars["timestamp"])
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_timestamp", err.Error(), nil)
		return
	}

	root, err := h.store.RootByTimestamp(timestamp)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusNotFound, "not_found", "no root recorded at timestamp", nil)
		return
	}

	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"timestamp": timestamp.Dec(),
		"root":      root.Hex(),
	})
}

// handleAddressByStep is the JSON convenience form of the unvalidated read.
func (h *Handler) handleAddressByStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	step, err := parseU256(vars["step"])
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_step", err.Error(), nil)
		return
	}

	addr := h.store.AddressByStep(step)
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"step":    step.Dec(),
		"address": addr.Hex(),
	})
}
