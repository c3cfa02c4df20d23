package web

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const visitorCookieName = "mergington_visitor"

// visitorCookies issues and verifies the signed cookie that ties a browser to
// its own message region. The key lives only as long as the process, like the
// message boards it points into.
type visitorCookies struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func newVisitorCookies() *visitorCookies {
	return &visitorCookies{codec: securecookie.New(securecookie.GenerateRandomKey(32), nil)}
}

// identify returns the visitor id carried by r, issuing a new one when the
// cookie is missing, expired or forged.
// POST: the returned id is non-empty
func (v *visitorCookies) identify(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookieName); err == nil {
		var id string
		if err := v.codec.Decode(visitorCookieName, c.Value, &id); err == nil && id != "" {
			return id
		}
	}

	id := uuid.NewString()
	encoded, err := v.codec.Encode(visitorCookieName, id)
	if err != nil {
		// the message for this request is still scoped to id; it just cannot follow the redirect
		slog.Error("visitor_cookie_encode_failed", "error", err)
		return id
	}
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	return id
}
