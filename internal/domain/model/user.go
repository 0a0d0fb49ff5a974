package model

import "net/http"

// User is the authenticated platform user as reported by GET /users/me.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// Session carries the browser's credentials (session cookies) that are
// forwarded to the backend on its behalf.
type Session struct {
	Cookies []*http.Cookie
}

// SessionFromRequest copies the request cookies, skipping the ones named in skip.
func SessionFromRequest(r *http.Request, skip ...string) Session {
	var out []*http.Cookie
next:
	for _, c := range r.Cookies() {
		for _, name := range skip {
			if c.Name == name {
				continue next
			}
		}
		out = append(out, c)
	}
	return Session{Cookies: out}
}
