package db

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("malformed identifier")
	ErrDuplicate = errors.New("record already exists")
)
