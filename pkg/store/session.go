package store

import (
	"crypto/sha256"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// SessionName is the name of the dataset session cookie.
const SessionName = "dataprep-session"

// sessionKeyDataset holds the ID of the most recently processed dataset.
const sessionKeyDataset = "dataset_id"

// SessionManager remembers the last dataset a browser processed, so a
// convert request may omit the dataset ID.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a signed cookie session manager.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive a 32-byte
// signing key. It must be consistent across restarts and across servers
// behind a load balancer.
func NewSessionManager(secret string, maxAge int, secure bool) *SessionManager {
	key := sha256.Sum256([]byte(secret))

	cs := sessions.NewCookieStore(key[:])
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	return &SessionManager{store: cs}
}

// LastDataset returns the dataset ID recorded in the request's session.
func (m *SessionManager) LastDataset(r *http.Request) (uuid.UUID, bool) {
	session, err := m.store.Get(r, SessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[sessionKeyDataset].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RememberDataset records id as the session's current dataset.
func (m *SessionManager) RememberDataset(w http.ResponseWriter, r *http.Request, id uuid.UUID) error {
	// A cookie signed with a rotated key yields an error alongside a fresh
	// session, which is overwritten here.
	session, _ := m.store.Get(r, SessionName)
	session.Values[sessionKeyDataset] = id.String()
	return session.Save(r, w)
}
