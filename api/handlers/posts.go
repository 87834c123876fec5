package handlers

import (
	"net/http"
	"time"

	"socialposts/api/middleware"
	"socialposts/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PostHandlers содержит обработчики /api/posts
type PostHandlers struct {
	posts *services.PostService
	log   *zap.Logger
}

func NewPostHandlers(posts *services.PostService, log *zap.Logger) *PostHandlers {
	return &PostHandlers{posts: posts, log: log}
}

type textRequest struct {
	Text string `json:"text"`
}

// bindText читает {text}; нечитаемое тело дает пустой текст, который отклонит валидация
func (h *PostHandlers) bindText(c *gin.Context) string {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("unreadable request body", zap.Error(err))
		return ""
	}
	return req.Text
}

func record(operation string, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = services.KindOf(err).String()
	}
	middleware.RecordPostOperation(operation, serviceName, time.Since(start), kind)
}

// CreatePost создает пост
func (h *PostHandlers) CreatePost(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	start := time.Now()

	post, err := h.posts.CreatePost(c.Request.Context(), userID, h.bindText(c))
	record("create", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListPosts возвращает все посты, новые первыми
func (h *PostHandlers) ListPosts(c *gin.Context) {
	start := time.Now()

	posts, err := h.posts.ListPosts(c.Request.Context())
	record("list", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost возвращает пост по id
func (h *PostHandlers) GetPost(c *gin.Context) {
	start := time.Now()

	post, err := h.posts.GetPost(c.Request.Context(), c.Param("id"))
	record("get", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost удаляет пост автора
func (h *PostHandlers) DeletePost(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	start := time.Now()

	err := h.posts.DeletePost(c.Request.Context(), c.Param("id"), userID)
	record("delete", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Post deleted"})
}

// LikePost ставит отметку и возвращает список отметок
func (h *PostHandlers) LikePost(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	start := time.Now()

	likes, err := h.posts.LikePost(c.Request.Context(), c.Param("id"), userID)
	record("like", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// UnlikePost снимает отметку и возвращает список отметок
func (h *PostHandlers) UnlikePost(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	start := time.Now()

	likes, err := h.posts.UnlikePost(c.Request.Context(), c.Param("id"), userID)
	record("unlike", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// AddComment добавляет комментарий и возвращает список комментариев
func (h *PostHandlers) AddComment(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	start := time.Now()

	comments, err := h.posts.AddComment(c.Request.Context(), c.Param("id"), userID, h.bindText(c))
	record("comment", start, err)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
