package store

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_RoundTrip(t *testing.T) {
	m := NewSessionManager("test-secret", 3600, false)
	id := uuid.New()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	require.NoError(t, m.RememberDataset(w, r, id))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	next := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	next.AddCookie(cookies[0])

	got, ok := m.LastDataset(next)
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestSessionManager_NoCookie(t *testing.T) {
	m := NewSessionManager("test-secret", 3600, false)

	_, ok := m.LastDataset(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestSessionManager_RejectsForeignSignature(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/process", nil)
	require.NoError(t, NewSessionManager("one", 3600, false).RememberDataset(w, r, uuid.New()))

	next := httptest.NewRequest(http.MethodPost, "/api/convert", nil)
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}

	_, ok := NewSessionManager("two", 3600, false).LastDataset(next)
	assert.False(t, ok)
}
