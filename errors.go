package halloc

import "errors"

var (
	// ErrMutatorFreed is returned when exclusive access is requested through
	// a handle that has already been freed.
	ErrMutatorFreed = errors.New("halloc: mutator already freed")

	// ErrMutatorShared is returned by GetMut while other clones of the
	// handle are live: exclusive access requires a reference count of
	// exactly one, otherwise the returned pointer would alias shared
	// storage.
	ErrMutatorShared = errors.New("halloc: mutator is shared")
)
