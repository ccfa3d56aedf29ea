package legacyupload

import (
	"crypto/subtle"
	"io"
	"os"
	"path/filepath"

	"github.com/vaultmesh/coordplane/internal/apperr"
	"github.com/vaultmesh/coordplane/internal/safeio"
)

// Appender spools legacy chunked uploads to baseDir, one file per upload
// id, gated by a static bearer-style token (original_source/src/main.rs's
// x-uploader-auth header check). It is disabled unless both BaseDir and
// a validated AuthToken are configured; see internal/httpapi for the
// "LEGACY_UPLOAD_DIR unset => routes absent" wiring.
type Appender struct {
	BaseDir   string
	AuthToken []byte
}

// NewAppender validates token against safeio's minimum secret length
// before returning an Appender (original_source hardcodes an 8-byte
// token; coordplane requires an operator-configured one at least as
// strong as every other bearer credential in the system).
func NewAppender(baseDir string, token []byte) (*Appender, error) {
	if err := safeio.ValidateSecret(token); err != nil {
		return nil, err
	}
	return &Appender{BaseDir: baseDir, AuthToken: token}, nil
}

// Authorized reports whether provided matches the configured token,
// using a constant-time comparison.
func (a *Appender) Authorized(provided []byte) bool {
	return subtle.ConstantTimeCompare(a.AuthToken, provided) == 1
}

// Append appends the bytes read from body to the spool file for uploadID,
// validating contentRangeHeader first if non-empty (apperr.InvalidRange on
// malformed input, per spec.md §7). A body longer than
// safeio.MaxRequestBody is rejected with safeio.ErrBodyTooLarge and nothing
// is written.
func (a *Appender) Append(uploadID, contentRangeHeader string, body io.Reader) error {
	if contentRangeHeader != "" {
		if _, err := ParseContentRange(contentRangeHeader); err != nil {
			return err
		}
	}

	data, err := safeio.LimitedReadAll(body, safeio.MaxRequestBody)
	if err != nil {
		return err
	}

	path := filepath.Join(a.BaseDir, filepath.Base(uploadID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return apperr.NewIo("open upload spool file", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return apperr.NewIo("append to upload spool file", err)
	}
	return nil
}

// Length returns the current size of the spool file for uploadID.
func (a *Appender) Length(uploadID string) (int64, error) {
	path := filepath.Join(a.BaseDir, filepath.Base(uploadID))
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, apperr.NewNotFound(uploadID)
		}
		return 0, apperr.NewIo("stat upload spool file", err)
	}
	return info.Size(), nil
}
