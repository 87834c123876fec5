package db

import (
	"context"
	"sort"
	"sync"

	"socialposts/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPostStore хранит посты в памяти процесса; для локального запуска и тестов.
// Отдает копии документов, чтобы изменения вне Save не попадали в хранилище.
type MemoryPostStore struct {
	mu    sync.RWMutex
	posts map[primitive.ObjectID]models.Post
}

func NewMemoryPostStore() *MemoryPostStore {
	return &MemoryPostStore{posts: make(map[primitive.ObjectID]models.Post)}
}

func clonePost(p models.Post) models.Post {
	p.Likes = append([]models.Like{}, p.Likes...)
	p.Comments = append([]models.Comment{}, p.Comments...)
	return p
}

func (s *MemoryPostStore) Create(_ context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = clonePost(*post)
	return nil
}

func (s *MemoryPostStore) FindAll(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, clonePost(p))
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

func (s *MemoryPostStore) FindByID(_ context.Context, id string) (*models.Post, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[oid]
	if !ok {
		return nil, ErrNotFound
	}
	post := clonePost(p)
	return &post, nil
}

func (s *MemoryPostStore) Save(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[post.ID]; !ok {
		return ErrNotFound
	}
	s.posts[post.ID] = clonePost(*post)
	return nil
}

func (s *MemoryPostStore) Remove(_ context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[oid]; !ok {
		return ErrNotFound
	}
	delete(s.posts, oid)
	return nil
}
