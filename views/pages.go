package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/socialmuse"
)

const billingURL = "https://ai.google.dev/gemini-api/docs/billing"

// KeyRequired is shown instead of every page until the browser selects a
// paid API key.
func KeyRequired(p socialmuse.Page) templ.Component {
	return layout("Billing Required", p, func(o *out) {
		o.raw(`<section class="gate"><h2>Billing Required</h2>`)
		o.raw(`<p>Image generation needs an API key from a project with billing enabled. `)
		o.raw(`<a href="` + billingURL + `" target="_blank" rel="noopener noreferrer">Learn about billing</a>.</p>`)
		csrfForm(o, p, "/key/", "key-form")
		o.raw(`<label>API key<input type="password" name="api_key" required autocomplete="off"/></label>`)
		o.raw(`<button type="submit">Select API key</button></form></section>`)
	})
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return errorPage("Not found", "The page or campaign you are looking for does not exist.")
}

// ServerError renders the 500 page.
func ServerError() templ.Component {
	return errorPage("Something went wrong", "Please try again in a moment.")
}

func errorPage(title, message string) templ.Component {
	return render(func(o *out) {
		o.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"/><title>`)
		o.text(title)
		o.raw(`</title><link rel="stylesheet" href="/public/app.css"/></head><body><main class="container error-page"><h1>`)
		o.text(title)
		o.raw(`</h1><p>`)
		o.text(message)
		o.raw(`</p><a class="button" href="/">Back to SocialMuse</a></main></body></html>`)
	})
}
