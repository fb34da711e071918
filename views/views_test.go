package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/eringen/socialmuse"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func samplePage() socialmuse.Page {
	return socialmuse.Page{
		SiteName:  "SocialMuse",
		CSRFToken: "tok<en>",
		HasKey:    true,
		State: socialmuse.AppState{
			View:      socialmuse.ViewHome,
			ImageSize: socialmuse.Size2K,
			Active: &socialmuse.CampaignResult{
				ID:        "c1",
				Idea:      "Launch <eco> bottle",
				Tone:      socialmuse.ToneWitty,
				Timestamp: 1700000000000,
				Posts: []socialmuse.SocialPost{
					{Platform: socialmuse.LinkedIn, Content: "Meet the bottle.", Hashtags: []string{"Eco", "Launch"}, AspectRatio: socialmuse.Ratio4x3},
					{Platform: socialmuse.Twitter, Content: "Sip happens.", Hashtags: []string{"Hydrate"}, ImageURI: "data:image/png;base64,AAAA"},
				},
			},
		},
	}
}

func TestHomeRendersCampaign(t *testing.T) {
	got := renderString(t, Home(samplePage()))

	checks := []string{
		`name="_csrf" value="tok&lt;en&gt;"`,
		`Launch &lt;eco&gt; bottle`,
		`data-image-src="/campaigns/c1/posts/LinkedIn/image/"`,
		`style="aspect-ratio: 4 / 3"`,
		`<img src="data:image/png;base64,AAAA"`,
		`data-copy="Meet the bottle.` + "\n\n" + `#Eco #Launch"`,
		`value="2K" checked`,
		`href="/export/"`,
	}
	for _, want := range checks {
		if !strings.Contains(got, want) {
			t.Errorf("Home output missing %q", want)
		}
	}
	if strings.Contains(got, "<eco>") {
		t.Error("Home output contains unescaped idea")
	}
}

func TestHomeShowsError(t *testing.T) {
	p := samplePage()
	p.State.Active = nil
	p.State.Error = "Failed to generate campaign drafts. Please try again."
	got := renderString(t, Home(p))
	if !strings.Contains(got, `role="alert">Failed to generate campaign drafts. Please try again.`) {
		t.Errorf("Home output missing error message:\n%s", got)
	}
	if strings.Contains(got, `class="campaign"`) {
		t.Error("Home output shows a campaign without an active result")
	}
}

func TestHomeAuthPanel(t *testing.T) {
	p := samplePage()
	p.AuthMode = "signin"
	p.AuthError = "Invalid credentials"
	got := renderString(t, Home(p))
	if !strings.Contains(got, `<details class="auth" open>`) {
		t.Error("auth panel is not open")
	}
	if !strings.Contains(got, "Invalid credentials") {
		t.Error("auth error not rendered")
	}

	p = samplePage()
	p.State.User = &socialmuse.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	got = renderString(t, Home(p))
	if !strings.Contains(got, `<span class="user">Ada</span>`) || !strings.Contains(got, `action="/auth/signout/"`) {
		t.Error("signed-in header not rendered")
	}
}

func TestHistoryList(t *testing.T) {
	p := samplePage()
	p.State.View = socialmuse.ViewHistory
	p.State.History = []socialmuse.CampaignResult{*p.State.Active}
	got := renderString(t, History(p))
	if !strings.Contains(got, `href="/campaigns/c1/"`) {
		t.Error("history item does not link to the campaign")
	}
	if !strings.Contains(got, `action="/campaigns/c1/delete/"`) {
		t.Error("history item has no delete form")
	}
	if !strings.Contains(got, "2 posts") {
		t.Error("history item does not show the post count")
	}

	p.State.History = nil
	if got := renderString(t, History(p)); !strings.Contains(got, "No campaigns yet") {
		t.Error("empty history message missing")
	}
}

func TestKeyRequired(t *testing.T) {
	got := renderString(t, KeyRequired(samplePage()))
	if !strings.Contains(got, "Billing Required") || !strings.Contains(got, `action="/key/"`) {
		t.Errorf("KeyRequired output incomplete:\n%s", got)
	}
}

func TestPostImageError(t *testing.T) {
	got := renderString(t, PostImageError("c1", socialmuse.Instagram, "Image generation failed."))
	if !strings.Contains(got, `data-retry-src="/campaigns/c1/posts/Instagram/image/"`) {
		t.Errorf("PostImageError has no retry target: %s", got)
	}
}

func TestFuncsComplete(t *testing.T) {
	f := Funcs()
	if f.Home == nil || f.History == nil || f.KeyRequired == nil || f.PostImage == nil ||
		f.PostImageError == nil || f.NotFound == nil || f.ServerError == nil {
		t.Fatal("Funcs left a view unset")
	}
}
