package wirecmp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pthm/wirecmp/lib/encoding"
)

// protocolHeader must accompany mutating requests. The client runtime
// sends it on every protocol request, which keeps plain cross-origin form
// posts out without extra tokens.
const protocolHeader = "X-Wirecmp"

// Handler mounts the snapshot protocol endpoints:
//
//	POST /update       processes an update/call batch
//	POST /mount/{name} mounts a component's first appearance
//
// Mount the handler wherever the client runtime is configured to call,
// typically "/_wire/".
func (p *Processor) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(p.requireProtocolHeader)
	r.Post("/update", p.handleUpdate)
	r.Post("/mount/{name}", p.handleMount)
	return r
}

func (p *Processor) requireProtocolHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			if r.Header.Get(protocolHeader) != "true" {
				http.Error(w, "Forbidden: protocol header required", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Processor) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := p.readBody(w, r)
	if err != nil {
		p.onError(w, r, err)
		return
	}
	var req UpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	flash := NewCookieFlashStore(w, r, p.flashEncoder())
	resp, err := p.Process(r.Context(), req, flash)
	if err != nil {
		p.onError(w, r, err)
		return
	}
	if err := flash.Save(); err != nil {
		p.onError(w, r, err)
		return
	}
	writeJSON(w, resp)
}

func (p *Processor) handleMount(w http.ResponseWriter, r *http.Request) {
	body, err := p.readBody(w, r)
	if err != nil {
		p.onError(w, r, err)
		return
	}
	params := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &params); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
	}

	resp, err := p.Mount(r.Context(), chi.URLParam(r, "name"), params)
	if err != nil {
		p.onError(w, r, err)
		return
	}
	writeJSON(w, resp)
}

// readBody reads the request body under the configured size limit,
// translating overruns into the limit error before any processing.
func (p *Processor) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(p.cfg.MaxSize))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrPayloadLimitExceeded
		}
		return nil, err
	}
	return body, nil
}

// flashEncoder lazily builds the cookie codec from the secret key.
func (p *Processor) flashEncoder() *encoding.Encoder {
	enc, err := encoding.NewEncoder([]byte(p.cfg.SecretKey))
	if err != nil {
		panic("wirecmp: flash encoder: " + err.Error())
	}
	return enc
}

// onError maps engine errors to HTTP responses. Override OnError on the
// Processor to customize.
func (p *Processor) onError(w http.ResponseWriter, r *http.Request, err error) {
	if p.OnError != nil {
		p.OnError(w, r, err)
		return
	}
	p.log.Error("request failed", "path", r.URL.Path, "error", err)
	switch {
	case errors.Is(err, ErrPayloadLimitExceeded):
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrCorruptPayload):
		http.Error(w, "Corrupt payload", http.StatusBadRequest)
	case errors.Is(err, ErrRecordNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, ErrCannotCallComputedDirectly),
		errors.Is(err, ErrCannotUpdateLockedProperty):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case IsHydrationError(err), errors.Is(err, ErrMethodNotFound):
		http.Error(w, "Unprocessable", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
