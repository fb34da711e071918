package views

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/socialmuse"
	"github.com/eringen/socialmuse/richtext"
)

// Home renders the campaign form and the displayed result.
func Home(p socialmuse.Page) templ.Component {
	return layout(p.SiteName, p, func(o *out) {
		campaignForm(o, p)
		if p.State.Generating {
			o.raw(`<p class="status" role="status">A campaign is being generated. Refresh to see it.</p>`)
		}
		if p.State.Error != "" {
			o.raw(`<p class="error" role="alert">`)
			o.text(p.State.Error)
			o.raw(`</p>`)
		}
		if p.State.Active != nil {
			campaign(o, *p.State.Active)
		}
	})
}

func campaignForm(o *out, p socialmuse.Page) {
	csrfForm(o, p, "/campaigns/", "campaign-form")
	o.raw(`<label for="idea">What are you promoting?</label>`)
	o.raw(`<textarea id="idea" name="idea" rows="3" required placeholder="Launch of our eco-friendly water bottle"></textarea>`)

	o.raw(`<fieldset class="tones"><legend>Tone</legend>`)
	for i, t := range socialmuse.Tones {
		o.raw(`<label><input type="radio" name="tone" value="`)
		o.text(string(t))
		o.raw(`"`)
		if i == 0 {
			o.raw(` checked`)
		}
		o.raw(`/>`)
		o.text(string(t))
		o.raw(`</label>`)
	}
	o.raw(`</fieldset>`)

	o.raw(`<fieldset class="sizes"><legend>Image size</legend>`)
	for _, s := range socialmuse.ImageSizes {
		o.raw(`<label><input type="radio" name="size" value="`)
		o.text(string(s))
		o.raw(`"`)
		if s == p.State.ImageSize {
			o.raw(` checked`)
		}
		o.raw(`/>`)
		o.text(string(s))
		o.raw(`</label>`)
	}
	o.raw(`</fieldset>`)
	o.raw(`<button type="submit" data-busy="Generating...">Generate campaign</button></form>`)
}

func campaign(o *out, r socialmuse.CampaignResult) {
	o.raw(`<section class="campaign"><div class="campaign-head"><div><h2>`)
	o.text(r.Idea)
	o.raw(`</h2><p class="meta">`)
	o.text(string(r.Tone))
	o.raw(` · `)
	o.text(formatDate(r.CreatedAt()))
	o.raw(`</p></div><a class="button" href="/export/" download>Export</a></div>`)
	o.raw(`<div class="posts">`)
	for _, post := range r.Posts {
		postCard(o, r.ID, post)
	}
	o.raw(`</div></section>`)
}

func postCard(o *out, campaignID string, post socialmuse.SocialPost) {
	o.raw(`<article class="post post-`)
	o.text(strings.ToLower(string(post.Platform)))
	o.raw(`"><h3>`)
	o.text(string(post.Platform))
	o.raw(`</h3>`)

	if post.ImageURI != "" {
		o.component(PostImage(campaignID, post.Platform, post.ImageURI))
	} else {
		o.raw(`<div class="post-image loading" data-image-src="`)
		o.text(imageURL(campaignID, post.Platform))
		o.raw(`" style="aspect-ratio: `)
		o.text(cssRatio(post.AspectRatio))
		o.raw(`"><span>Generating image...</span></div>`)
	}

	o.raw(`<div class="post-body">`)
	o.component(richtext.Post(post.Content))
	o.raw(`</div><p class="hashtags">`)
	for i, tag := range post.Hashtags {
		if i > 0 {
			o.raw(" ")
		}
		o.raw(`<span class="hashtag">#`)
		o.text(tag)
		o.raw(`</span>`)
	}
	o.raw(`</p><button type="button" class="copy" data-copy="`)
	o.text(socialmuse.CopyText(post))
	o.raw(`">Copy</button></article>`)
}

// cssRatio turns "16:9" into the CSS aspect-ratio form "16 / 9".
func cssRatio(r socialmuse.AspectRatio) string {
	w, h, ok := strings.Cut(string(r), ":")
	if !ok {
		return "1 / 1"
	}
	return w + " / " + h
}

// PostImage renders a resolved post image.
func PostImage(campaignID string, platform socialmuse.Platform, uri string) templ.Component {
	return render(func(o *out) {
		o.raw(`<div class="post-image"><img src="`)
		o.text(uri)
		o.raw(`" alt="Generated visual for the `)
		o.text(string(platform))
		o.raw(` post"/></div>`)
	})
}

// PostImageError renders the per-post failure in place of the image.
func PostImageError(campaignID string, platform socialmuse.Platform, message string) templ.Component {
	return render(func(o *out) {
		o.raw(`<div class="post-image failed"><p>`)
		o.text(message)
		o.raw(`</p><button type="button" class="retry" data-retry-src="`)
		o.text(imageURL(campaignID, platform))
		o.raw(`">Retry</button></div>`)
	})
}
