package handler

import (
	"net/http"
	"time"
)

// CookieConfig controls the session cookie issued on login.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

func (cc CookieConfig) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     cc.Name,
		Value:    token,
		Path:     "/",
		Domain:   cc.Domain,
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cc CookieConfig) expired() *http.Cookie {
	c := cc.session("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
