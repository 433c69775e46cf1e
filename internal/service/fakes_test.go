package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"tubely/backend/internal/domain"
	"tubely/backend/internal/repository"
	"tubely/backend/internal/storage"
)

type fakeVideoRepo struct {
	mu          sync.Mutex
	videos      map[string]domain.Video
	updateErr   error
	updateCalls int
	deleteErr   error
}

func newFakeVideoRepo(videos ...domain.Video) *fakeVideoRepo {
	r := &fakeVideoRepo{videos: map[string]domain.Video{}}
	for _, v := range videos {
		r.videos[v.ID] = v
	}
	return r
}

func (r *fakeVideoRepo) Create(_ context.Context, v *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == "" {
		v.ID = "00000000-0000-4000-8000-000000000000"
	}
	v.CreatedAt = time.Now().UTC()
	r.videos[v.ID] = *v
	return nil
}

func (r *fakeVideoRepo) GetByID(_ context.Context, id string) (*domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r *fakeVideoRepo) ListByUser(_ context.Context, userID string) ([]domain.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Video{}
	for _, v := range r.videos {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) Update(_ context.Context, v *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.videos[v.ID]; !ok {
		return repository.ErrNotFound
	}
	r.videos[v.ID] = *v
	return nil
}

func (r *fakeVideoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) stored(id string) domain.Video {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.videos[id]
}

func (r *fakeVideoRepo) updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateCalls
}

type fakeThumbnailRepo struct {
	mu     sync.Mutex
	thumbs map[string]domain.Thumbnail
	putErr error
}

func newFakeThumbnailRepo() *fakeThumbnailRepo {
	return &fakeThumbnailRepo{thumbs: map[string]domain.Thumbnail{}}
}

func (r *fakeThumbnailRepo) Put(_ context.Context, t *domain.Thumbnail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	if _, ok := r.thumbs[t.ID]; !ok {
		r.thumbs[t.ID] = *t
	}
	return nil
}

func (r *fakeThumbnailRepo) Get(_ context.Context, id string) (*domain.Thumbnail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.thumbs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

type putCall struct {
	Key         string
	ContentType string
	Body        []byte
}

// fakeStorage records puts in memory and builds URLs like the S3 storage does.
type fakeStorage struct {
	storage.PublicURLs
	mu      sync.Mutex
	puts    []putCall
	deleted []string
	putErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{PublicURLs: storage.NewPublicURLs("https://d111.cloudfront.net", "tubely-media", "us-east-1")}
}

func (s *fakeStorage) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts = append(s.puts, putCall{Key: key, ContentType: contentType, Body: buf.Bytes()})
	return nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) putCalls() []putCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]putCall(nil), s.puts...)
}

var errStoreDown = errors.New("store unavailable")

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User // by email
	n     int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return repository.ErrDuplicate
	}
	r.n++
	u.ID = "user-" + string(rune('0'+r.n))
	r.users[u.Email] = *u
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}
