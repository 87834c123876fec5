package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post - документ поста в коллекции posts.
// Name и Avatar копируются из профиля автора в момент создания и больше не обновляются.
type Post struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User     int64              `bson:"user" json:"user"`
	Text     string             `bson:"text" json:"text"`
	Name     string             `bson:"name" json:"name"`
	Avatar   string             `bson:"avatar" json:"avatar"`
	Likes    []Like             `bson:"likes" json:"likes"`
	Comments []Comment          `bson:"comments" json:"comments"`
	Date     time.Time          `bson:"date" json:"date"`
}

// Like - отметка пользователя; не больше одной на пользователя в рамках поста
type Like struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	User int64              `bson:"user" json:"user"`
}

type Comment struct {
	ID     primitive.ObjectID `bson:"_id" json:"_id"`
	User   int64              `bson:"user" json:"user"`
	Text   string             `bson:"text" json:"text"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar" json:"avatar"`
	Date   time.Time          `bson:"date" json:"date"`
}

// LikedBy сообщает, есть ли у поста отметка пользователя
func (p *Post) LikedBy(userID int64) bool {
	for _, like := range p.Likes {
		if like.User == userID {
			return true
		}
	}
	return false
}
