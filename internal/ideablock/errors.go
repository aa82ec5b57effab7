package ideablock

import "errors"

var (
	// ErrUnterminatedBlock is recorded when <ideablock> has no closing tag
	ErrUnterminatedBlock = errors.New("unterminated ideablock")

	// ErrUnterminatedField is recorded when a field tag inside a block has no closing tag
	ErrUnterminatedField = errors.New("unterminated field")
)
