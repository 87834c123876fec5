package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialposts/db"
	"socialposts/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PostStore - документное хранилище постов
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Save(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id string) error
}

// UserLookup отдает профиль действующего пользователя (имя и аватар)
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// PostService реализует операции над постами. Каждая мутация - чтение, проверка,
// изменение и полная запись документа без блокировок: при гонке двух запросов
// к одному посту выигрывает последняя запись.
type PostService struct {
	posts    PostStore
	users    UserLookup
	activity ActivityPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewPostService собирает сервис; activity может быть nil
func NewPostService(posts PostStore, users UserLookup, activity ActivityPublisher, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{
		posts:    posts,
		users:    users,
		activity: activity,
		log:      log,
		now:      time.Now,
	}
}

// CreatePost создает пост от имени пользователя
func (ps *PostService) CreatePost(ctx context.Context, userID int64, text string) (*models.Post, error) {
	if err := textRules.ValidateFields(ctx, map[string]string{"text": text}); err != nil {
		return nil, err
	}

	user, err := ps.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		User:     userID,
		Text:     text,
		Name:     user.Name,
		Avatar:   user.Avatar,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
		Date:     ps.now().UTC(),
	}
	if err := ps.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	ps.log.Debug("post created", zap.String("post_id", post.ID.Hex()), zap.Int64("user_id", userID))
	return post, nil
}

// ListPosts возвращает все посты, новые первыми
func (ps *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := ps.posts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost возвращает пост; некорректный id означает "не найден"
func (ps *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return ps.fetchPost(ctx, id)
}

// DeletePost удаляет пост; удалить может только автор
func (ps *PostService) DeletePost(ctx context.Context, id string, userID int64) error {
	post, err := ps.fetchPost(ctx, id)
	if err != nil {
		return err
	}

	if post.User != userID {
		return ErrNotAuthorized
	}

	if err := ps.posts.Remove(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}

	ps.log.Debug("post deleted", zap.String("post_id", id), zap.Int64("user_id", userID))
	return nil
}

// LikePost ставит отметку пользователя в начало списка; повторная отметка отклоняется
func (ps *PostService) LikePost(ctx context.Context, id string, userID int64) ([]models.Like, error) {
	post, err := ps.fetchPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if post.LikedBy(userID) {
		return nil, ErrAlreadyLiked
	}

	like := models.Like{ID: primitive.NewObjectID(), User: userID}
	post.Likes = append([]models.Like{like}, post.Likes...)

	if err := ps.save(ctx, post); err != nil {
		return nil, err
	}

	ps.notify(ctx, post, userID, EventPostLiked, "")
	return post.Likes, nil
}

// UnlikePost снимает все отметки пользователя; без отметки - ошибка состояния
func (ps *PostService) UnlikePost(ctx context.Context, id string, userID int64) ([]models.Like, error) {
	post, err := ps.fetchPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.LikedBy(userID) {
		return nil, ErrNotYetLiked
	}

	likes := make([]models.Like, 0, len(post.Likes))
	for _, like := range post.Likes {
		if like.User != userID {
			likes = append(likes, like)
		}
	}
	post.Likes = likes

	if err := ps.save(ctx, post); err != nil {
		return nil, err
	}
	return post.Likes, nil
}

// AddComment добавляет комментарий в начало списка
func (ps *PostService) AddComment(ctx context.Context, id string, userID int64, text string) ([]models.Comment, error) {
	if err := textRules.ValidateFields(ctx, map[string]string{"text": text}); err != nil {
		return nil, err
	}

	user, err := ps.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	post, err := ps.fetchPost(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:     primitive.NewObjectID(),
		User:   userID,
		Text:   text,
		Name:   user.Name,
		Avatar: user.Avatar,
		Date:   ps.now().UTC(),
	}
	post.Comments = append([]models.Comment{comment}, post.Comments...)

	if err := ps.save(ctx, post); err != nil {
		return nil, err
	}

	ps.notify(ctx, post, userID, EventPostCommented, text)
	return post.Comments, nil
}

func (ps *PostService) fetchPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := ps.posts.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) || errors.Is(err, db.ErrInvalidID) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post %s: %w", id, err)
	}
	return post, nil
}

func (ps *PostService) save(ctx context.Context, post *models.Post) error {
	err := ps.posts.Save(ctx, post)
	if errors.Is(err, db.ErrNotFound) {
		// пост удален между чтением и записью
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save post %s: %w", post.ID.Hex(), err)
	}
	return nil
}

func (ps *PostService) lookupUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := ps.users.FindByID(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}

// notify отправляет событие автору поста; свои действия не уведомляются
func (ps *PostService) notify(ctx context.Context, post *models.Post, actorID int64, event string, text string) {
	if ps.activity == nil || post.User == actorID {
		return
	}

	actorName := ""
	if actor, err := ps.users.FindByID(ctx, actorID); err == nil {
		actorName = actor.Name
	}

	err := ps.activity.Publish(ctx, ActivityEvent{
		Event:     event,
		PostID:    post.ID.Hex(),
		OwnerID:   post.User,
		ActorID:   actorID,
		ActorName: actorName,
		Text:      text,
		CreatedAt: ps.now().UTC(),
	})
	if err != nil {
		ps.log.Warn("failed to publish post activity",
			zap.String("event", event),
			zap.String("post_id", post.ID.Hex()),
			zap.Error(err))
	}
}
