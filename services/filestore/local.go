// Package filesvc stores uploaded blobs on the local filesystem and hands out
// expiring signed download URLs for them.
package filesvc

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Kuroson/cs3900-project-sub002/core"
)

type LocalStore struct {
	dir     string
	baseURL string
	secret  []byte
	timeout time.Duration
}

var _ core.FileStore = (*LocalStore)(nil)

func NewLocalStore() (*LocalStore, error) {
	dir := core.Conf.GetString("fileStoreDir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating file store dir")
	}
	return &LocalStore{
		dir:     dir,
		baseURL: core.Conf.GetString("fileBaseURL"),
		secret:  []byte(core.Conf.GetString("secretKey")),
		timeout: core.Conf.GetDuration("fileURLTimeout"),
	}, nil
}

// Store writes the blob under a fresh opaque ref. The original extension is
// kept so served files get a sensible content type.
func (s *LocalStore) Store(data []byte, meta core.FileMeta) (string, error) {
	ref := uuid.New().String() + filepath.Ext(meta.Name)
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", errors.Wrapf(err, "storing file %q", meta.Name)
	}
	return ref, nil
}

// URLFor signs a time-limited download URL for a stored ref.
func (s *LocalStore) URLFor(ref string) (string, error) {
	if _, err := os.Stat(filepath.Join(s.dir, ref)); err != nil {
		return "", errors.Wrapf(core.ErrNotFound, "stored file %q", ref)
	}
	expiry := time.Now().Add(s.timeout).Unix()
	return fmt.Sprintf("%s/%s?expires=%d&sig=%s", s.baseURL, ref, expiry, s.sign(ref, expiry)), nil
}

// VerifyURL checks a download request's ref, expiry and signature as produced
// by URLFor.
func (s *LocalStore) VerifyURL(ref, expires, sig string) error {
	expiry, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return core.NewForbiddenError(core.ReasonBadCredential)
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(ref, expiry))) {
		return core.NewForbiddenError(core.ReasonBadCredential)
	}
	return nil
}

// Path returns the filesystem location of a stored ref, for serving.
func (s *LocalStore) Path(ref string) string {
	return filepath.Join(s.dir, filepath.Base(ref))
}

func (s *LocalStore) sign(ref string, expiry int64) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(ref + "|" + strconv.FormatInt(expiry, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
