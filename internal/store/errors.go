package store

// deskNotFoundError signals a read against a desk the store does not hold.
type deskNotFoundError struct{ desk string }

func (e deskNotFoundError) Error() string { return "desk not found: " + e.desk }

func ErrDeskNotFound(desk string) error { return deskNotFoundError{desk: desk} }

// IsDeskNotFound reports whether the error indicates a missing desk.
func IsDeskNotFound(err error) bool {
	_, ok := err.(deskNotFoundError)
	return ok
}

// bucketNotFoundError signals a read against a bucket the desk does not hold.
type bucketNotFoundError struct{ bucket string }

func (e bucketNotFoundError) Error() string { return "bucket not found: " + e.bucket }

func ErrBucketNotFound(bucket string) error { return bucketNotFoundError{bucket: bucket} }

// IsBucketNotFound reports whether the error indicates a missing bucket.
func IsBucketNotFound(err error) bool {
	_, ok := err.(bucketNotFoundError)
	return ok
}

// entryNotFoundError signals a read against a key the bucket does not hold.
type entryNotFoundError struct{ key string }

func (e entryNotFoundError) Error() string { return "entry not found: " + e.key }

func ErrEntryNotFound(key string) error { return entryNotFoundError{key: key} }

// IsEntryNotFound reports whether the error indicates a missing entry.
func IsEntryNotFound(err error) bool {
	_, ok := err.(entryNotFoundError)
	return ok
}

// invalidInputError signals a malformed name or value in a mutating call.
type invalidInputError struct{ msg string }

func (e invalidInputError) Error() string { return e.msg }

func errInvalidInput(msg string) error { return invalidInputError{msg: msg} }

// IsInvalidInput reports whether the error indicates rejected input
// (map to 400 at the HTTP layer).
func IsInvalidInput(err error) bool {
	_, ok := err.(invalidInputError)
	return ok
}
