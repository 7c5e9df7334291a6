package model

import (
	"fmt"
	"strconv"
)

// OperationIdentity identifies the screen instance that owns an operation.
// It is used only to correlate result events with their requester.
type OperationIdentity int64

// NoIdentity is never assigned to a live interactor.
const NoIdentity OperationIdentity = 0

func (id OperationIdentity) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id OperationIdentity) IsValid() bool {
	return id > NoIdentity
}

// ParseIdentity converts a path or routing-key segment into an identity.
func ParseIdentity(s string) (OperationIdentity, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoIdentity, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	id := OperationIdentity(v)
	if !id.IsValid() {
		return NoIdentity, fmt.Errorf("%w: %q", ErrInvalidIdentity, s)
	}
	return id, nil
}
