package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	oauthadapter "github.com/renatooliveira/savethebeat/internal/adapter/oauth"
	spotifyadapter "github.com/renatooliveira/savethebeat/internal/adapter/spotify"
	"github.com/renatooliveira/savethebeat/internal/domain"
	"github.com/renatooliveira/savethebeat/internal/repository"
)

// ---- In-memory repositories and fake collaborators shared across service tests ----

type memoryUserAuthRepo struct {
	mu   sync.Mutex
	seq  int64
	rows map[string]*domain.UserAuth
}

var _ repository.UserAuthRepository = (*memoryUserAuthRepo)(nil)

func newMemoryUserAuthRepo() *memoryUserAuthRepo {
	return &memoryUserAuthRepo{rows: make(map[string]*domain.UserAuth)}
}

func authKey(workspaceID, userID string) string {
	return workspaceID + "|" + userID
}

func (r *memoryUserAuthRepo) Get(_ context.Context, workspaceID, userID string) (*domain.UserAuth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[authKey(workspaceID, userID)]
	if !ok {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (r *memoryUserAuthRepo) Upsert(_ context.Context, params repository.UpsertUserAuthParams) (domain.UserAuth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := authKey(params.WorkspaceID, params.UserID)
	now := time.Now().UTC()
	if rec, ok := r.rows[key]; ok {
		rec.SpotifyUserID = params.SpotifyUserID
		rec.AccessToken = params.AccessToken
		rec.RefreshToken = params.RefreshToken
		rec.ExpiresAt = params.ExpiresAt
		rec.UpdatedAt = now
		return *rec, nil
	}
	r.seq++
	rec := &domain.UserAuth{
		ID:            r.seq,
		WorkspaceID:   params.WorkspaceID,
		UserID:        params.UserID,
		SpotifyUserID: params.SpotifyUserID,
		AccessToken:   params.AccessToken,
		RefreshToken:  params.RefreshToken,
		ExpiresAt:     params.ExpiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.rows[key] = rec
	return *rec, nil
}

func (r *memoryUserAuthRepo) UpdateTokens(_ context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.ID == id {
			rec.AccessToken = accessToken
			rec.RefreshToken = refreshToken
			rec.ExpiresAt = expiresAt
			rec.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

// memoryLedger enforces the same unique key as the save_action_log table.
type memoryLedger struct {
	mu   sync.Mutex
	seq  int64
	rows []domain.SaveAction
}

var _ repository.SaveActionRepository = (*memoryLedger)(nil)

func ledgerKeyMatches(a domain.SaveAction, workspaceID, userID, threadID, trackID string) bool {
	return a.WorkspaceID == workspaceID && a.UserID == userID && a.ThreadID == threadID && a.TrackID == trackID
}

func (l *memoryLedger) Find(_ context.Context, workspaceID, userID, threadID, trackID string) (*domain.SaveAction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if ledgerKeyMatches(l.rows[i], workspaceID, userID, threadID, trackID) {
			clone := l.rows[i]
			return &clone, nil
		}
	}
	return nil, nil
}

func (l *memoryLedger) Insert(_ context.Context, action domain.SaveAction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if ledgerKeyMatches(l.rows[i], action.WorkspaceID, action.UserID, action.ThreadID, action.TrackID) {
			return domain.ErrDuplicateSaveAction
		}
	}
	l.seq++
	action.ID = l.seq
	action.CreatedAt = time.Now().UTC()
	l.rows = append(l.rows, action)
	return nil
}

func (l *memoryLedger) all() []domain.SaveAction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SaveAction(nil), l.rows...)
}

// memoryStateStore mirrors the Redis store's contract with an injectable clock.
type memoryStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]domain.ConnectState
}

var _ repository.ConnectStateStore = (*memoryStateStore)(nil)

func newMemoryStateStore(ttl time.Duration) *memoryStateStore {
	return &memoryStateStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]domain.ConnectState),
	}
}

func (s *memoryStateStore) Issue(_ context.Context, workspaceID, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = domain.ConnectState{
		WorkspaceID: workspaceID,
		UserID:      userID,
		CreatedAt:   s.now().UTC(),
	}
	return token, nil
}

func (s *memoryStateStore) Consume(_ context.Context, token string) (*domain.ConnectState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[token]
	if !ok {
		return nil, nil
	}
	delete(s.entries, token)
	if s.now().Sub(state.CreatedAt) > s.ttl {
		return nil, nil
	}
	return &state, nil
}

type fakeExchanger struct {
	mu               sync.Mutex
	exchangePair     *oauthadapter.TokenPair
	exchangeErr      error
	refreshPair      *oauthadapter.TokenPair
	refreshErr       error
	refreshCalls     int
	lastRefreshToken string
}

var _ oauthadapter.TokenExchanger = (*fakeExchanger)(nil)

func (f *fakeExchanger) AuthCodeURL(state string) string {
	return "https://accounts.spotify.com/authorize?state=" + state
}

func (f *fakeExchanger) ExchangeCode(context.Context, string) (*oauthadapter.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	pair := *f.exchangePair
	return &pair, nil
}

func (f *fakeExchanger) RefreshToken(_ context.Context, refreshToken string) (*oauthadapter.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.lastRefreshToken = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	pair := *f.refreshPair
	return &pair, nil
}

func (f *fakeExchanger) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type fakeChat struct {
	mu         sync.Mutex
	replies    []domain.ThreadMessage
	repliesErr error
	reactions  []string
	dms        []string
}

func (f *fakeChat) FetchThreadReplies(context.Context, string, string) ([]domain.ThreadMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.repliesErr != nil {
		return nil, f.repliesErr
	}
	return append([]domain.ThreadMessage(nil), f.replies...), nil
}

func (f *fakeChat) AddReaction(_ context.Context, _, _, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeChat) PostMessage(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dms = append(f.dms, text)
	return nil
}

func (f *fakeChat) allReactions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reactions...)
}

type saveCall struct {
	accessToken string
	trackID     string
}

type fakeMusic struct {
	mu         sync.Mutex
	saveCalls  []saveCall
	saveErr    error
	profile    *spotifyadapter.UserProfile
	profileErr error
}

var _ spotifyadapter.Client = (*fakeMusic)(nil)

func (f *fakeMusic) SaveTrack(_ context.Context, accessToken, trackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls = append(f.saveCalls, saveCall{accessToken: accessToken, trackID: trackID})
	return f.saveErr
}

func (f *fakeMusic) CurrentUser(context.Context, string) (*spotifyadapter.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return &spotifyadapter.UserProfile{ID: "spotify-user"}, nil
	}
	profile := *f.profile
	return &profile, nil
}

func (f *fakeMusic) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saveCalls)
}
