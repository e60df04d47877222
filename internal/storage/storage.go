package storage

import "errors"

var (
	ErrUserExists     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrImageNotFound  = errors.New("image not found")
	ErrNotImageOwner  = errors.New("image belongs to another user")
	ErrTokenNotStored = errors.New("token not found in storage")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileNotFound    = errors.New("file not found")
)
