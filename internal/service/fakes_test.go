package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
)

// In-memory fakes for the coordinator's collaborators, mirroring the
// repository and cache contracts.

type fakeStore struct {
	mu         sync.Mutex
	data       map[string]string
	counters   map[string]int64
	subs       map[string][]chan string
	failWrites bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:     make(map[string]string),
		counters: make(map[string]int64),
		subs:     make(map[string][]chan string),
	}
}

func (f *fakeStore) Set(_ context.Context, ns, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("store unavailable")
	}
	f.data[ns+":"+key] = value
	return nil
}

func (f *fakeStore) Get(_ context.Context, ns, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[ns+":"+key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeStore) Delete(_ context.Context, ns, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("store unavailable")
	}
	delete(f.data, ns+":"+key)
	return nil
}

func (f *fakeStore) IncrWithExpire(_ context.Context, ns, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[ns+":"+key]++
	return f.counters[ns+":"+key], nil
}

func (f *fakeStore) Publish(_ context.Context, channel, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[channel] {
		ch <- message
	}
	return nil
}

func (f *fakeStore) Subscribe(ctx context.Context, channel string) <-chan string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan string, 16)
	f.subs[channel] = append(f.subs[channel], ch)
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		close(ch)
		subs := f.subs[channel]
		for i, c := range subs {
			if c == ch {
				f.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}()
	return ch
}

func (f *fakeStore) get(ns, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[ns+":"+key]
	return val, ok
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // bodies
	to    []string
	calls int
}

func (f *fakeMailer) Send(to, _ string, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.to = append(f.to, to)
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeMailer) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
	lookups int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[user.Email]; ok {
		return errors.New("duplicate email")
	}
	clone := *user
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	user, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byEmail {
		if user.ID == id {
			user.Verified = true
			return nil
		}
	}
	return errors.New("user not found for verification")
}

// fakeRoleRepo mimics the serialized bootstrap contract: the first row
// in an empty table gets admin, later first-time rows get user.
type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[string]string)}
}

func (f *fakeRoleRepo) FindByUser(_ context.Context, userID string) (*model.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.roles[userID]
	if !ok {
		return nil, nil
	}
	return &model.Role{UserID: userID, Role: role}, nil
}

func (f *fakeRoleRepo) EnsureRole(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if existing, ok := f.roles[userID]; ok {
		return existing, nil
	}
	role := model.RoleUser
	if len(f.roles) == 0 {
		role = model.RoleAdmin
	}
	f.roles[userID] = role
	return role, nil
}

func (f *fakeRoleRepo) UpdateRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.roles[userID] = role
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	upserts  int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (f *fakeProfileRepo) FindByID(_ context.Context, id string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	profile.UpdatedAt = time.Now()
	clone := *profile
	f.profiles[profile.ID] = &clone
	return nil
}

func (f *fakeProfileRepo) UpdateFullName(_ context.Context, id, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[id]
	if !ok {
		return errors.New("profile not found for update")
	}
	profile.FullName = fullName
	profile.UpdatedAt = time.Now()
	return nil
}
