package socialmuse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Storage keys of the three collections. They are namespaced per workspace.
const (
	usersKey       = "socialmuse_users"
	currentUserKey = "socialmuse_current_user"
	campaignsKey   = "socialmuse_campaigns"
)

// Store holds one workspace's users, current-session user, and campaigns.
// Every operation reads the whole collection, modifies it, and writes it back.
type Store struct {
	kv        KV
	namespace string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewStore returns a Store whose keys live under namespace.
func NewStore(kv KV, namespace string) *Store {
	return &Store{kv: kv, namespace: namespace}
}

func (s *Store) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "/" + name
}

// load decodes the JSON value under name into v. A missing key leaves v untouched.
func (s *Store) load(ctx context.Context, name string, v any) error {
	data, err := s.kv.Get(ctx, s.key(name))
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, s.key(name), data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ListUsers returns every user in sign-up order.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listUsers(ctx)
}

func (s *Store) listUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := s.load(ctx, usersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUser appends u to the user collection. Email uniqueness is the
// caller's responsibility.
func (s *Store) SaveUser(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.listUsers(ctx)
	if err != nil {
		return err
	}
	users = append(users, u)
	return s.save(ctx, usersKey, users)
}

// CurrentUser returns the signed-in user, or nil when nobody is signed in.
func (s *Store) CurrentUser(ctx context.Context) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var u *User
	if err := s.load(ctx, currentUserKey, &u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetCurrentUser records the signed-in user. A nil u signs out.
func (s *Store) SetCurrentUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, currentUserKey, u)
}

func (s *Store) allCampaigns(ctx context.Context) ([]CampaignResult, error) {
	campaigns := []CampaignResult{}
	if err := s.load(ctx, campaignsKey, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// SaveCampaign prepends c so the newest campaign comes first.
func (s *Store) SaveCampaign(ctx context.Context, c CampaignResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.allCampaigns(ctx)
	if err != nil {
		return err
	}
	campaigns = append([]CampaignResult{c}, campaigns...)
	return s.save(ctx, campaignsKey, campaigns)
}

// ListCampaigns returns the campaigns owned by userID, newest first.
// A nil userID selects only anonymous campaigns.
func (s *Store) ListCampaigns(ctx context.Context, userID *string) ([]CampaignResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.allCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	filtered := []CampaignResult{}
	for _, c := range campaigns {
		if c.OwnedBy(userID) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// GetCampaign returns the campaign with id regardless of owner.
func (s *Store) GetCampaign(ctx context.Context, id string) (CampaignResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.allCampaigns(ctx)
	if err != nil {
		return CampaignResult{}, err
	}
	for _, c := range campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return CampaignResult{}, ErrCampaignNotFound
}

// DeleteCampaign removes the campaign with id. Deleting an unknown id is a no-op.
func (s *Store) DeleteCampaign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	campaigns, err := s.allCampaigns(ctx)
	if err != nil {
		return err
	}
	kept := campaigns[:0]
	for _, c := range campaigns {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(campaigns) {
		return nil
	}
	return s.save(ctx, campaignsKey, kept)
}
