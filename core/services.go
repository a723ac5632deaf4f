package core

// Identity is the result of verifying an opaque credential.
type Identity struct {
	UserID string
	Email  string
}

// CredentialVerifier is any service that can resolve an opaque token to an Identity.
type CredentialVerifier interface {
	Verify(token string) (Identity, error)
}

// FileMeta describes an uploaded blob.
type FileMeta struct {
	Name        string
	ContentType string
}

// FileStore is any service that can persist uploaded blobs and hand out
// time-limited URLs for them. Refs are opaque to callers.
type FileStore interface {
	Store(data []byte, meta FileMeta) (ref string, err error)
	URLFor(ref string) (url string, err error)
}
