package baha

import "errors"

var (
	ErrInvalidURL   = errors.New("invalid url string")
	ErrPostID       = errors.New("can't get id")
	ErrLastFloor    = errors.New("can't get last floor")
	ErrPostTitle    = errors.New("post title invalid")
	ErrUserNotFound = errors.New("user not found")
)
