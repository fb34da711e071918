// Package views renders the SocialMuse pages as templ components.
package views

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/socialmuse"
)

// Funcs returns the view functions the socialmuse handlers render.
func Funcs() socialmuse.ViewFuncs {
	return socialmuse.ViewFuncs{
		Home:           Home,
		History:        History,
		KeyRequired:    KeyRequired,
		PostImage:      PostImage,
		PostImageError: PostImageError,
		NotFound:       NotFound,
		ServerError:    ServerError,
	}
}

// out accumulates HTML and keeps the first write error.
type out struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (o *out) raw(s string) {
	if o.err != nil {
		return
	}
	_, o.err = io.WriteString(o.w, s)
}

// text writes s escaped for element content and attribute values.
func (o *out) text(s string) {
	o.raw(templ.EscapeString(s))
}

func (o *out) component(c templ.Component) {
	if o.err != nil {
		return
	}
	o.err = c.Render(o.ctx, o.w)
}

func render(fn func(o *out)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		o := &out{ctx: ctx, w: w}
		fn(o)
		return o.err
	})
}

// layout wraps body in the page chrome shared by every full page.
func layout(title string, p socialmuse.Page, body func(o *out)) templ.Component {
	return render(func(o *out) {
		o.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/>`)
		o.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		o.raw(`<meta name="csrf-token" content="`)
		o.text(p.CSRFToken)
		o.raw(`"/><title>`)
		o.text(title)
		if title != p.SiteName {
			o.raw(" · ")
			o.text(p.SiteName)
		}
		o.raw(`</title><link rel="stylesheet" href="/public/app.css"/>`)
		o.raw(`<script src="/public/app.js" defer></script></head><body>`)
		header(o, p)
		o.raw(`<main class="container">`)
		body(o)
		o.raw(`</main><footer class="footer">Drafts are generated by AI. Review before publishing.</footer></body></html>`)
	})
}

func header(o *out, p socialmuse.Page) {
	o.raw(`<header class="header"><a class="brand" href="/">`)
	o.text(p.SiteName)
	o.raw(`</a><nav class="nav">`)
	navLink(o, "/", "Create", p.State.View == socialmuse.ViewHome)
	navLink(o, "/history/", "History", p.State.View == socialmuse.ViewHistory)
	o.raw(`</nav><div class="account">`)
	if u := p.State.User; u != nil {
		o.raw(`<span class="user">`)
		o.text(displayName(*u))
		o.raw(`</span>`)
		csrfForm(o, p, "/auth/signout/", "inline")
		o.raw(`<button type="submit" class="link">Sign out</button></form>`)
	} else {
		authPanel(o, p)
	}
	o.raw(`</div></header>`)
}

func navLink(o *out, href, label string, active bool) {
	o.raw(`<a href="`)
	o.text(href)
	if active {
		o.raw(`" class="active" aria-current="page">`)
	} else {
		o.raw(`">`)
	}
	o.text(label)
	o.raw(`</a>`)
}

func displayName(u socialmuse.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// csrfForm opens a POST form carrying the CSRF token. Callers close it.
func csrfForm(o *out, p socialmuse.Page, action, class string) {
	o.raw(`<form method="post" action="`)
	o.text(action)
	o.raw(`"`)
	if class != "" {
		o.raw(` class="`)
		o.text(class)
		o.raw(`"`)
	}
	o.raw(`><input type="hidden" name="_csrf" value="`)
	o.text(p.CSRFToken)
	o.raw(`"/>`)
}

func authPanel(o *out, p socialmuse.Page) {
	o.raw(`<details class="auth"`)
	if p.AuthMode != "" {
		o.raw(` open`)
	}
	o.raw(`><summary>Sign in</summary><div class="auth-body">`)
	if p.AuthError != "" {
		o.raw(`<p class="error" role="alert">`)
		o.text(p.AuthError)
		o.raw(`</p>`)
	}

	csrfForm(o, p, "/auth/signin/", "auth-form")
	o.raw(`<h3>Sign in</h3>`)
	emailPasswordFields(o, "signin")
	o.raw(`<button type="submit">Sign in</button></form>`)

	csrfForm(o, p, "/auth/signup/", "auth-form")
	o.raw(`<h3>Create account</h3>`)
	o.raw(`<label>Name<input type="text" name="name" autocomplete="name"/></label>`)
	emailPasswordFields(o, "signup")
	o.raw(`<button type="submit">Sign up</button></form>`)
	o.raw(`</div></details>`)
}

func emailPasswordFields(o *out, mode string) {
	autocomplete := "current-password"
	if mode == "signup" {
		autocomplete = "new-password"
	}
	o.raw(`<label>Email<input type="email" name="email" required autocomplete="email"/></label>`)
	o.raw(`<label>Password<input type="password" name="password" required autocomplete="`)
	o.raw(autocomplete)
	o.raw(`"/></label>`)
}

func imageURL(campaignID string, platform socialmuse.Platform) string {
	return "/campaigns/" + url.PathEscape(campaignID) + "/posts/" + url.PathEscape(string(platform)) + "/image/"
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04")
}
