package wirecmp

import (
	"html"
	"net/http"
	"strings"

	"github.com/pthm/wirecmp/lib/encoding"
)

// Flash levels for one-time notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-time notification message.
type Flash struct {
	Level   string `msgpack:"l"`
	Message string `msgpack:"m"`
}

// FlashStore is the flash-message collaborator. It keeps two buffers: the
// pending messages about to be shown, and the already-shown messages kept
// for one request so re-renders can still display them.
//
// The batch processor clears both buffers exactly once at the end of a
// request, unless some component in the batch redirected, in which case
// the buffers must survive to be re-displayed after the redirect.
type FlashStore interface {
	Add(level, message string)
	Pending() []Flash
	ClearPending()
	ClearShown()
}

// flashCookie is the cookie carrying the two buffers between requests.
const flashCookie = "wirecmp_flash"

type flashBuffers struct {
	Pending []Flash `msgpack:"p"`
	Shown   []Flash `msgpack:"s"`
}

// CookieFlashStore is a FlashStore carried in a signed msgpack cookie, so
// no server-side session storage is required. Construct one per request;
// call Save before the response body is written.
type CookieFlashStore struct {
	w   http.ResponseWriter
	enc *encoding.Encoder

	buffers flashBuffers
	dirty   bool
}

// NewCookieFlashStore reads the flash cookie from the request. A missing,
// malformed, or tampered cookie yields empty buffers.
func NewCookieFlashStore(w http.ResponseWriter, r *http.Request, enc *encoding.Encoder) *CookieFlashStore {
	s := &CookieFlashStore{w: w, enc: enc}
	if cookie, err := r.Cookie(flashCookie); err == nil {
		_ = enc.Decode(cookie.Value, false, &s.buffers)
	}
	return s
}

// Add queues a pending flash message.
func (s *CookieFlashStore) Add(level, message string) {
	s.buffers.Pending = append(s.buffers.Pending, Flash{Level: level, Message: message})
	s.dirty = true
}

// Pending returns the queued messages.
func (s *CookieFlashStore) Pending() []Flash { return s.buffers.Pending }

// ClearPending moves pending messages to the shown buffer.
func (s *CookieFlashStore) ClearPending() {
	if len(s.buffers.Pending) == 0 {
		return
	}
	s.buffers.Shown = append(s.buffers.Shown, s.buffers.Pending...)
	s.buffers.Pending = nil
	s.dirty = true
}

// ClearShown drops the already-shown buffer.
func (s *CookieFlashStore) ClearShown() {
	if len(s.buffers.Shown) == 0 {
		return
	}
	s.buffers.Shown = nil
	s.dirty = true
}

// Save writes the cookie if the buffers changed. Must run before the
// response body.
func (s *CookieFlashStore) Save() error {
	if !s.dirty {
		return nil
	}
	value, err := s.enc.Encode(s.buffers, false)
	if err != nil {
		return err
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RenderFlashesOOB renders flashes as out-of-band swap HTML appended to
// the #toasts container.
func RenderFlashesOOB(flashes []Flash) string {
	if len(flashes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<div id="toasts" data-swap-oob="beforeend">`)
	for _, f := range flashes {
		sb.WriteString(`<div class="toast toast-`)
		sb.WriteString(html.EscapeString(f.Level))
		sb.WriteString(`" data-auto-dismiss="3000">`)
		sb.WriteString(html.EscapeString(f.Message))
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}
