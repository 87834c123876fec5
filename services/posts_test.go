package services

import (
	"context"
	"errors"
	"testing"

	"socialposts/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePost(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "hello")
	require.NoError(t, err)

	assert.False(t, post.ID.IsZero())
	assert.Equal(t, author.ID, post.User)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, author.Name, post.Name)
	assert.Equal(t, author.Avatar, post.Avatar)
	assert.NotNil(t, post.Likes)
	assert.Empty(t, post.Likes)
	assert.NotNil(t, post.Comments)
	assert.Empty(t, post.Comments)
	assert.False(t, post.Date.IsZero())

	stored, err := f.service.GetPost(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, post.Text, stored.Text)
}

func TestCreatePostRequiresText(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)

	_, err := f.service.CreatePost(ctx, author.ID, "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "text", validationErr.Errors[0].Param)
	assert.Equal(t, "Text is required", validationErr.Errors[0].Msg)
	assert.Equal(t, "body", validationErr.Errors[0].Location)

	posts, err := f.service.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostUnknownUser(t *testing.T) {
	f := newPostsFixture(t)

	_, err := f.service.CreatePost(context.Background(), 4242, "hello")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListPostsNewestFirst(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)

	empty, err := f.service.ListPosts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, text := range []string{"first", "second", "third"} {
		_, err := f.service.CreatePost(ctx, author.ID, text)
		require.NoError(t, err)
	}

	posts, err := f.service.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "third", posts[0].Text)
	assert.Equal(t, "second", posts[1].Text)
	assert.Equal(t, "first", posts[2].Text)
}

func TestGetPostNotFound(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()

	_, err := f.service.GetPost(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrPostNotFound)

	// некорректный id неотличим от отсутствующего поста
	_, err = f.service.GetPost(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	stranger := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "to be deleted")
	require.NoError(t, err)
	id := post.ID.Hex()

	err = f.service.DeletePost(ctx, id, stranger.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = f.service.GetPost(ctx, id)
	require.NoError(t, err, "post must survive a foreign delete")

	require.NoError(t, f.service.DeletePost(ctx, id, author.ID))

	_, err = f.service.GetPost(ctx, id)
	assert.ErrorIs(t, err, ErrPostNotFound)

	err = f.service.DeletePost(ctx, id, author.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	err = f.service.DeletePost(ctx, "zzz", author.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

// Сценарий: U1 создает пост, U2 ставит и снимает отметку, удалить пост может только U1
func TestPostLifecycle(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	u1 := createTestUser(t, f.users)
	u2 := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, u1.ID, "hello")
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	id := post.ID.Hex()

	likes, err := f.service.LikePost(ctx, id, u2.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, u2.ID, likes[0].User)
	assert.False(t, likes[0].ID.IsZero())

	_, err = f.service.LikePost(ctx, id, u2.ID)
	assert.ErrorIs(t, err, ErrAlreadyLiked)
	assert.Equal(t, "Post already liked", err.Error())

	likes, err = f.service.UnlikePost(ctx, id, u2.ID)
	require.NoError(t, err)
	assert.NotNil(t, likes)
	assert.Empty(t, likes)

	err = f.service.DeletePost(ctx, id, u2.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, f.service.DeletePost(ctx, id, u1.ID))
	_, err = f.service.GetPost(ctx, id)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestLikePrependsNewest(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	first := createTestUser(t, f.users)
	second := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "popular")
	require.NoError(t, err)

	_, err = f.service.LikePost(ctx, post.ID.Hex(), first.ID)
	require.NoError(t, err)
	likes, err := f.service.LikePost(ctx, post.ID.Hex(), second.ID)
	require.NoError(t, err)

	require.Len(t, likes, 2)
	assert.Equal(t, second.ID, likes[0].User)
	assert.Equal(t, first.ID, likes[1].User)

	stored, err := f.service.GetPost(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, likes, stored.Likes)
}

func TestUnlikeWithoutLike(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "quiet")
	require.NoError(t, err)

	_, err = f.service.UnlikePost(ctx, post.ID.Hex(), author.ID)
	assert.ErrorIs(t, err, ErrNotYetLiked)
	assert.Equal(t, KindInvalidState, KindOf(err))

	_, err = f.service.UnlikePost(ctx, primitive.NewObjectID().Hex(), author.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = f.service.LikePost(ctx, primitive.NewObjectID().Hex(), author.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUnlikeRemovesEveryLikeOfUser(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	fan := createTestUser(t, f.users)
	other := createTestUser(t, f.users)

	// дубликаты могли появиться при гонке двух одновременных отметок
	post := &models.Post{
		User: author.ID,
		Text: "raced",
		Likes: []models.Like{
			{ID: primitive.NewObjectID(), User: fan.ID},
			{ID: primitive.NewObjectID(), User: other.ID},
			{ID: primitive.NewObjectID(), User: fan.ID},
		},
		Comments: []models.Comment{},
	}
	require.NoError(t, f.store.Create(ctx, post))

	likes, err := f.service.UnlikePost(ctx, post.ID.Hex(), fan.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, other.ID, likes[0].User)
}

func TestAddComment(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	commenter := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "discuss")
	require.NoError(t, err)
	id := post.ID.Hex()

	comments, err := f.service.AddComment(ctx, id, commenter.ID, "first!")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, commenter.ID, comments[0].User)
	assert.Equal(t, "first!", comments[0].Text)
	assert.Equal(t, commenter.Name, comments[0].Name)
	assert.Equal(t, commenter.Avatar, comments[0].Avatar)
	assert.False(t, comments[0].ID.IsZero())
	assert.False(t, comments[0].Date.IsZero())

	comments, err = f.service.AddComment(ctx, id, author.ID, "thanks")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "thanks", comments[0].Text)
	assert.Equal(t, "first!", comments[1].Text)

	stored, err := f.service.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, comments, stored.Comments)
	assert.Equal(t, "discuss", stored.Text)
}

func TestAddCommentErrors(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "discuss")
	require.NoError(t, err)

	_, err = f.service.AddComment(ctx, post.ID.Hex(), author.ID, "")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.service.AddComment(ctx, post.ID.Hex(), 9999, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.service.AddComment(ctx, primitive.NewObjectID().Hex(), author.ID, "lost")
	assert.ErrorIs(t, err, ErrPostNotFound)

	stored, err := f.service.GetPost(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestActivityOnlyForOtherUsers(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	fan := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "watch me")
	require.NoError(t, err)
	id := post.ID.Hex()

	_, err = f.service.LikePost(ctx, id, author.ID)
	require.NoError(t, err)
	_, err = f.service.AddComment(ctx, id, author.ID, "self comment")
	require.NoError(t, err)
	assert.Empty(t, f.publisher.Events())

	_, err = f.service.LikePost(ctx, id, fan.ID)
	require.NoError(t, err)
	_, err = f.service.AddComment(ctx, id, fan.ID, "nice")
	require.NoError(t, err)
	_, err = f.service.UnlikePost(ctx, id, fan.ID)
	require.NoError(t, err)

	events := f.publisher.Events()
	require.Len(t, events, 2)

	assert.Equal(t, EventPostLiked, events[0].Event)
	assert.Equal(t, id, events[0].PostID)
	assert.Equal(t, author.ID, events[0].OwnerID)
	assert.Equal(t, fan.ID, events[0].ActorID)
	assert.Equal(t, fan.Name, events[0].ActorName)

	assert.Equal(t, EventPostCommented, events[1].Event)
	assert.Equal(t, "nice", events[1].Text)
}

func TestActivityFailureDoesNotFailOperation(t *testing.T) {
	f := newPostsFixture(t)
	f.publisher.err = errors.New("broker is down")
	ctx := context.Background()
	author := createTestUser(t, f.users)
	fan := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "resilient")
	require.NoError(t, err)

	likes, err := f.service.LikePost(ctx, post.ID.Hex(), fan.ID)
	require.NoError(t, err)
	assert.Len(t, likes, 1)
	assert.Len(t, f.publisher.Events(), 1)
}

func TestPostServiceWithoutActivity(t *testing.T) {
	f := newPostsFixture(t)
	service := NewPostService(f.store, f.users, nil, nil)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	fan := createTestUser(t, f.users)

	post, err := service.CreatePost(ctx, author.ID, "no activity")
	require.NoError(t, err)
	_, err = service.LikePost(ctx, post.ID.Hex(), fan.ID)
	require.NoError(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindServer, KindOf(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(ErrPostNotFound))
	assert.Equal(t, KindDuplicateAction, KindOf(ErrAlreadyLiked))
	assert.Equal(t, KindValidation, KindOf(&ValidationError{}))
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "server", KindServer.String())
}

func TestRejectedMutationsLeavePostUnchanged(t *testing.T) {
	f := newPostsFixture(t)
	ctx := context.Background()
	author := createTestUser(t, f.users)
	first := createTestUser(t, f.users)
	second := createTestUser(t, f.users)

	post, err := f.service.CreatePost(ctx, author.ID, "stable")
	require.NoError(t, err)
	id := post.ID.Hex()

	_, err = f.service.LikePost(ctx, id, first.ID)
	require.NoError(t, err)
	before, err := f.service.GetPost(ctx, id)
	require.NoError(t, err)

	_, err = f.service.LikePost(ctx, id, first.ID)
	require.ErrorIs(t, err, ErrAlreadyLiked)
	_, err = f.service.UnlikePost(ctx, id, second.ID)
	require.ErrorIs(t, err, ErrNotYetLiked)
	_, err = f.service.AddComment(ctx, id, second.ID, "")
	require.Error(t, err)

	after, err := f.service.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// отметка и ее снятие другим пользователем возвращают прежний список
	_, err = f.service.LikePost(ctx, id, second.ID)
	require.NoError(t, err)
	likes, err := f.service.UnlikePost(ctx, id, second.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Likes, likes)
}
