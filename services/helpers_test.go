package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"socialposts/db"
	"socialposts/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestUserStore поднимает отдельную sqlite-базу в памяти на каждый тест
func newTestUserStore(t *testing.T) *db.UserStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	orm, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	manager, err := db.NewManager(orm)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return db.NewUserStore(manager)
}

func createTestUser(t *testing.T, store *db.UserStore) *models.User {
	t.Helper()

	user := &models.User{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: "unused",
		Avatar:   gofakeit.URL(),
	}
	require.NoError(t, store.Create(context.Background(), user))
	return user
}

// steppingClock отдает строго возрастающее время, чтобы порядок постов был детерминирован
func steppingClock() func() time.Time {
	var (
		mu   sync.Mutex
		tick time.Duration
	)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick += time.Second
		return base.Add(tick)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ActivityEvent(nil), p.events...)
}

type postsFixture struct {
	service   *PostService
	store     *db.MemoryPostStore
	users     *db.UserStore
	publisher *recordingPublisher
}

func newPostsFixture(t *testing.T) *postsFixture {
	t.Helper()

	store := db.NewMemoryPostStore()
	users := newTestUserStore(t)
	publisher := &recordingPublisher{}

	service := NewPostService(store, users, publisher, nil)
	service.now = steppingClock()

	return &postsFixture{service: service, store: store, users: users, publisher: publisher}
}
