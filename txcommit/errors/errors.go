package errors

import (
	"errors"
	"fmt"
)

const (
	KindVerb = "verb"
	KindAttr = "attribute"
)

// ErrNotFound matches every NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError is returned when a lookup by name has no entry,
// e.g. an unknown verb name or a missing attribute.
type NotFoundError struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found : %s", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewErrNotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

func NewErrUnknownVerb(name string) error {
	return &NotFoundError{Kind: KindVerb, Key: name}
}

func NewErrAttrNotFound(name string) error {
	return &NotFoundError{Kind: KindAttr, Key: name}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnknownVerb reports whether err came from resolving an unrecognized verb
// name, and returns that name.
func IsUnknownVerb(err error) (bool, string) {
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Kind == KindVerb {
		return true, nf.Key
	}
	return false, ""
}

// ErrAlreadyExists matches every AlreadyExistsError through errors.Is.
var ErrAlreadyExists = errors.New("already exists")

type AlreadyExistsError struct {
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists : %s", e.Kind, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

func NewErrAlreadyExists(kind, key string) error {
	return &AlreadyExistsError{Kind: kind, Key: key}
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
