package chunk

import "errors"

// ErrNotPresent reports a chunk that does not exist in the dimension,
// either never generated or deleted in the current revision.
var ErrNotPresent = errors.New("chunk: not present")

// ErrNoRevision reports a revision index with no stored snapshot.
var ErrNoRevision = errors.New("chunk: no such revision")
