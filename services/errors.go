package services

import "errors"

// ErrorKind - класс ошибки операции; транспорт сопоставляет его со статусом ответа
type ErrorKind int

const (
	KindServer ErrorKind = iota
	KindValidation
	KindDuplicateAction
	KindInvalidState
	KindAuthorization
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateAction:
		return "duplicate_action"
	case KindInvalidState:
		return "invalid_state"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "server"
	}
}

// PostError - ожидаемая ошибка бизнес-правила; Msg уходит клиенту как есть
type PostError struct {
	Kind ErrorKind
	Msg  string
}

func (e *PostError) Error() string {
	return e.Msg
}

var (
	ErrPostNotFound      = &PostError{Kind: KindNotFound, Msg: "Post Not Found"}
	ErrUserNotFound      = &PostError{Kind: KindNotFound, Msg: "User not found"}
	ErrNotAuthorized     = &PostError{Kind: KindAuthorization, Msg: "User not authorized"}
	ErrAlreadyLiked      = &PostError{Kind: KindDuplicateAction, Msg: "Post already liked"}
	ErrNotYetLiked       = &PostError{Kind: KindInvalidState, Msg: "Post has not yet been liked"}
	ErrUserExists        = &PostError{Kind: KindDuplicateAction, Msg: "User already exists"}
	ErrInvalidCredential = &PostError{Kind: KindInvalidState, Msg: "Invalid Credentials"}
)

// KindOf определяет класс ошибки; все неизвестные ошибки считаются серверными
func KindOf(err error) ErrorKind {
	var postErr *PostError
	if errors.As(err, &postErr) {
		return postErr.Kind
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	return KindServer
}
