package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushHandler_Success(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewPushHandler(PushConfig{EndpointURL: srv.URL})
	_, err := h.Handle(context.Background(), []byte(`{"token":"dev-1","title":"hi","body":"there"}`))
	require.NoError(t, err)
	assert.Equal(t, "dev-1", got["token"])
	assert.Equal(t, "hi", got["title"])
}

func TestPushHandler_MissingToken(t *testing.T) {
	h := NewPushHandler(PushConfig{EndpointURL: "http://localhost"})
	_, err := h.Handle(context.Background(), []byte(`{"title":"hi"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'token'")
}

func TestNewPushFactory_RequiresEndpoint(t *testing.T) {
	_, err := NewPushFactory(PushConfig{})
	require.Error(t, err)
}
