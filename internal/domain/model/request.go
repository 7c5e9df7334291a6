package model

import (
	"fmt"
	"strings"
)

// DeleteRequest identifies the rating entry to remove.
// It lives only for the duration of a single dispatch.
type DeleteRequest struct {
	ClassName string `json:"className"`
	ClassPK   int64  `json:"classPK"`
}

func NewDeleteRequest(className string, classPK int64) DeleteRequest {
	return DeleteRequest{
		ClassName: strings.TrimSpace(className),
		ClassPK:   classPK,
	}
}

func (r DeleteRequest) Validate() error {
	if r.ClassName == "" {
		return fmt.Errorf("%w: class name is empty", ErrInvalidRequest)
	}
	if r.ClassPK <= 0 {
		return fmt.Errorf("%w: class pk must be positive, got %d", ErrInvalidRequest, r.ClassPK)
	}
	return nil
}
