package socialmuse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View is the page a workspace currently shows.
type View string

const (
	ViewHome    View = "home"
	ViewHistory View = "history"
)

// maxCachedImages bounds the resolved images a workspace keeps in memory.
const maxCachedImages = 30

// AppState is the view and session state of one workspace.
type AppState struct {
	View       View
	User       *User
	Generating bool
	Active     *CampaignResult
	Error      string
	ImageSize  ImageSize
	History    []CampaignResult
}

// Drafter produces the posts of a campaign.
type Drafter interface {
	Draft(ctx context.Context, apiKey string, data CampaignData) ([]SocialPost, error)
}

// ImageRenderer produces the visual of a post as a displayable URI.
type ImageRenderer interface {
	Render(ctx context.Context, apiKey, prompt string, ratio AspectRatio, size ImageSize) (string, error)
}

// Gate is the credential precondition of generation.
type Gate interface {
	APIKey(ctx context.Context) (string, error)
	HasSelectedKey(ctx context.Context) (bool, error)
	SelectKey(ctx context.Context, key string) error
	OpenSelectKey(ctx context.Context) error
}

// WorkspaceDeps are the collaborators of a Workspace.
type WorkspaceDeps struct {
	Store   *Store
	Gate    Gate
	Drafter Drafter
	Images  ImageRenderer
	Logger  *zap.Logger

	// KeyRejected is called with the API key the provider rejected.
	KeyRejected func(apiKey string)
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// Workspace coordinates generation, history, and authentication for one
// browser. All state changes go through its methods; model calls run
// without holding the lock.
type Workspace struct {
	ID string

	store       *Store
	gate        Gate
	drafter     Drafter
	images      ImageRenderer
	log         *zap.Logger
	keyRejected func(string)
	now         func() time.Time
	newID       func() string

	authMu sync.Mutex

	mu       sync.Mutex
	state    AppState
	seq      uint64
	inflight int
	resolved map[string]string
	lastSeen time.Time
}

// NewWorkspace creates a workspace. Call Load before using it.
func NewWorkspace(id string, deps WorkspaceDeps) *Workspace {
	w := &Workspace{
		ID:          id,
		store:       deps.Store,
		gate:        deps.Gate,
		drafter:     deps.Drafter,
		images:      deps.Images,
		log:         deps.Logger,
		keyRejected: deps.KeyRejected,
		now:         deps.Now,
		newID:       deps.NewID,
		state:       AppState{View: ViewHome, ImageSize: Size1K},
		resolved:    make(map[string]string),
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	w.lastSeen = w.now()
	return w
}

// Load reads the signed-in user and that user's history from the store.
func (w *Workspace) Load(ctx context.Context) error {
	u, err := w.store.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("load current user: %w", err)
	}
	return w.switchUser(ctx, u)
}

// switchUser makes u the session user and reloads the history bucket.
func (w *Workspace) switchUser(ctx context.Context, u *User) error {
	history, err := w.store.ListCampaigns(ctx, userIDOf(u))
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.User = u
	w.state.History = history
	if w.state.Active != nil && !w.state.Active.OwnedBy(userIDOf(u)) {
		w.state.Active = nil
	}
	return nil
}

func userIDOf(u *User) *string {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func (w *Workspace) touch() {
	w.lastSeen = w.now()
}

func (w *Workspace) markSeen() {
	w.mu.Lock()
	w.touch()
	w.mu.Unlock()
}

// begin and end bracket a model call; a workspace with calls in flight is
// never idle.
func (w *Workspace) begin() {
	w.mu.Lock()
	w.inflight++
	w.touch()
	w.mu.Unlock()
}

func (w *Workspace) end() {
	w.mu.Lock()
	w.inflight--
	w.touch()
	w.mu.Unlock()
}

// Snapshot returns a copy of the state with resolved images attached to the
// active result.
func (w *Workspace) Snapshot() AppState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	s := w.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	s.History = append([]CampaignResult(nil), w.state.History...)
	if s.Active != nil {
		active := *s.Active
		active.Posts = append([]SocialPost(nil), s.Active.Posts...)
		for i := range active.Posts {
			active.Posts[i].ImageURI = w.resolved[imageKey(active.ID, active.Posts[i].Platform)]
		}
		s.Active = &active
	}
	return s
}

// SetView switches between the home and history pages.
func (w *Workspace) SetView(v View) {
	w.mu.Lock()
	w.state.View = v
	w.touch()
	w.mu.Unlock()
}

// Generate runs one campaign generation from form input to the displayed,
// persisted result. Each call takes a sequence number; when a newer call
// was submitted before this one resolved, the result is stored and listed
// but the newer call keeps the display, and ErrSuperseded is returned.
// A result whose owner is no longer the session user is stored but never
// displayed, also with ErrSuperseded.
func (w *Workspace) Generate(ctx context.Context, data CampaignData) (CampaignResult, error) {
	if data.ImageSize == "" {
		data.ImageSize = Size1K
	}
	data.Idea = strings.TrimSpace(data.Idea)

	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.state.Generating = true
	w.state.Error = ""
	w.state.ImageSize = data.ImageSize
	owner := userIDOf(w.state.User)
	w.touch()
	w.mu.Unlock()

	w.begin()
	defer w.end()

	posts, err := w.draft(ctx, data)
	if err != nil {
		return CampaignResult{}, w.fail(seq, &GenerationError{Err: err})
	}

	result := CampaignResult{
		ID:        w.newID(),
		Idea:      data.Idea,
		Tone:      data.Tone,
		Posts:     posts,
		Timestamp: w.now().UnixMilli(),
		UserID:    owner,
	}
	if err := w.store.SaveCampaign(ctx, result); err != nil {
		return CampaignResult{}, w.fail(seq, &GenerationError{Err: fmt.Errorf("save campaign: %w", err)})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if result.OwnedBy(userIDOf(w.state.User)) {
		w.state.History = append([]CampaignResult{result}, w.state.History...)
	}
	if seq != w.seq {
		w.log.Info("discarding superseded campaign",
			zap.String("workspace", w.ID),
			zap.String("campaign", result.ID),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", w.seq))
		return result, ErrSuperseded
	}
	if !result.OwnedBy(userIDOf(w.state.User)) {
		// The session user changed while the drafts were generated.
		w.state.Generating = false
		w.log.Info("discarding campaign of a previous session user",
			zap.String("workspace", w.ID),
			zap.String("campaign", result.ID))
		return result, ErrSuperseded
	}
	w.state.Active = &result
	w.state.View = ViewHome
	w.state.Generating = false
	w.log.Info("campaign generated",
		zap.String("workspace", w.ID),
		zap.String("campaign", result.ID),
		zap.String("tone", string(result.Tone)))
	return result, nil
}

func (w *Workspace) draft(ctx context.Context, data CampaignData) ([]SocialPost, error) {
	apiKey, err := w.gate.APIKey(ctx)
	if err != nil {
		return nil, err
	}
	return w.drafter.Draft(ctx, apiKey, data)
}

// fail records a generation failure if seq is still the latest submission.
func (w *Workspace) fail(seq uint64, err *GenerationError) error {
	w.log.Error("campaign generation failed", zap.String("workspace", w.ID), zap.Error(err))
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq == w.seq {
		w.state.Error = err.UserMessage()
		w.state.Generating = false
	}
	return err
}

func imageKey(campaignID string, p Platform) string {
	return campaignID + "/" + string(p)
}

// RenderImage resolves the visual of one post of a campaign. Failures stay
// local to the post; a rejected key additionally asks the gate to re-select.
func (w *Workspace) RenderImage(ctx context.Context, campaignID string, platform Platform) (string, error) {
	w.mu.Lock()
	if uri, ok := w.resolved[imageKey(campaignID, platform)]; ok {
		w.mu.Unlock()
		return uri, nil
	}
	size := w.state.ImageSize
	campaign, found := w.findLocked(campaignID)
	w.touch()
	w.mu.Unlock()

	if !found {
		c, err := w.store.GetCampaign(ctx, campaignID)
		if err != nil {
			return "", err
		}
		campaign = c
	}
	post, ok := campaign.Post(platform)
	if !ok {
		return "", ErrCampaignNotFound
	}
	prompt, ratio := imageRequestFor(post)

	apiKey, err := w.gate.APIKey(ctx)
	if err != nil {
		return "", &ImageError{Platform: platform, Err: err}
	}
	w.begin()
	uri, err := w.images.Render(ctx, apiKey, prompt, ratio, size)
	w.end()
	if err != nil {
		imgErr := &ImageError{Platform: platform, Credential: IsCredentialError(err), Err: err}
		w.log.Warn("image generation failed",
			zap.String("workspace", w.ID),
			zap.String("campaign", campaignID),
			zap.String("platform", string(platform)),
			zap.Bool("credential", imgErr.Credential),
			zap.Error(err))
		if imgErr.Credential {
			w.requestKeyReselect(ctx, apiKey)
		}
		return "", imgErr
	}

	w.mu.Lock()
	if len(w.resolved) >= maxCachedImages {
		w.resolved = make(map[string]string)
	}
	w.resolved[imageKey(campaignID, platform)] = uri
	w.mu.Unlock()
	return uri, nil
}

// imageRequestFor returns the prompt and aspect ratio of a post, falling
// back to the post text and the platform's fixed ratio.
func imageRequestFor(post SocialPost) (string, AspectRatio) {
	prompt := post.Prompt
	if prompt == "" {
		prompt = "An eye-catching image for this social media post: " + post.Content
	}
	ratio := post.AspectRatio
	if ratio == "" {
		for _, spec := range platformSpecs {
			if spec.platform == post.Platform {
				ratio = spec.ratio
			}
		}
	}
	return prompt, ratio
}

func (w *Workspace) requestKeyReselect(ctx context.Context, apiKey string) {
	if err := w.gate.OpenSelectKey(ctx); err != nil {
		w.log.Error("reset api key", zap.String("workspace", w.ID), zap.Error(err))
	}
	if w.keyRejected != nil {
		w.keyRejected(apiKey)
	}
}

func (w *Workspace) findLocked(id string) (CampaignResult, bool) {
	if w.state.Active != nil && w.state.Active.ID == id {
		return *w.state.Active, true
	}
	for _, c := range w.state.History {
		if c.ID == id {
			return c, true
		}
	}
	return CampaignResult{}, false
}

// SelectCampaign displays a campaign from the history list.
func (w *Workspace) SelectCampaign(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()
	for _, c := range w.state.History {
		if c.ID == id {
			c := c
			w.state.Active = &c
			w.state.View = ViewHome
			w.state.Error = ""
			return nil
		}
	}
	return ErrCampaignNotFound
}

// DeleteCampaign removes a campaign from the store and from the history list.
func (w *Workspace) DeleteCampaign(ctx context.Context, id string) error {
	if err := w.store.DeleteCampaign(ctx, id); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.state.History[:0]
	for _, c := range w.state.History {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	w.state.History = kept
	if w.state.Active != nil && w.state.Active.ID == id {
		w.state.Active = nil
	}
	for _, p := range Platforms() {
		delete(w.resolved, imageKey(id, p))
	}
	return nil
}

// Export returns the file name and plain-text export of the displayed result.
func (w *Workspace) Export() (string, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Active == nil {
		return "", "", ErrNoActiveCampaign
	}
	return ExportFilename(w.now()), ExportText(*w.state.Active), nil
}

// ExportCampaign returns the export of a stored campaign.
func (w *Workspace) ExportCampaign(ctx context.Context, id string) (string, string, error) {
	c, err := w.store.GetCampaign(ctx, id)
	if err != nil {
		return "", "", err
	}
	return ExportFilename(w.now()), ExportText(c), nil
}

// HasSelectedKey reports whether the workspace may generate.
func (w *Workspace) HasSelectedKey(ctx context.Context) (bool, error) {
	return w.gate.HasSelectedKey(ctx)
}

// SelectKey stores an API key for the workspace.
func (w *Workspace) SelectKey(ctx context.Context, key string) error {
	return w.gate.SelectKey(ctx, key)
}

// IdleSince reports whether the workspace has been unused since t.
func (w *Workspace) IdleSince(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen.Before(t) && w.inflight == 0 && !w.state.Generating
}

// IsSuperseded reports whether err only means a newer generation won.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
