package views

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/socialmuse"
)

// History lists the campaigns of the current user, newest first.
func History(p socialmuse.Page) templ.Component {
	return layout("History", p, func(o *out) {
		o.raw(`<section class="history"><h2>Campaign history</h2>`)
		if len(p.State.History) == 0 {
			o.raw(`<p class="empty">No campaigns yet. <a href="/">Create one</a>.</p></section>`)
			return
		}
		o.raw(`<ul class="history-list">`)
		for _, c := range p.State.History {
			historyItem(o, p, c)
		}
		o.raw(`</ul></section>`)
	})
}

func historyItem(o *out, p socialmuse.Page, c socialmuse.CampaignResult) {
	id := url.PathEscape(c.ID)
	o.raw(`<li class="history-item"><a href="/campaigns/`)
	o.text(id)
	o.raw(`/"><strong>`)
	o.text(c.Idea)
	o.raw(`</strong><span class="meta">`)
	o.text(string(c.Tone))
	o.raw(` · `)
	o.text(formatDate(c.CreatedAt()))
	o.raw(` · `)
	o.raw(strconv.Itoa(len(c.Posts)))
	o.raw(` posts</span></a>`)
	csrfForm(o, p, "/campaigns/"+id+"/delete/", "inline")
	o.raw(`<button type="submit" class="link danger" data-confirm="Delete this campaign?">Delete</button></form></li>`)
}
