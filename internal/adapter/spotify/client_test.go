package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveTrackSendsAuthorizedPut(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotIDs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotIDs = r.URL.Query().Get("ids")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), srv.URL)
	err := client.SaveTrack(context.Background(), "token-123", "3n3Ppam7vgaVa1iaRUc9Lp")
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/v1/me/tracks", gotPath)
	require.Equal(t, "Bearer token-123", gotAuth)
	require.Equal(t, "3n3Ppam7vgaVa1iaRUc9Lp", gotIDs)
}

func TestSaveTrackDecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"status":403,"message":"Insufficient client scope"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), srv.URL)
	err := client.SaveTrack(context.Background(), "token-123", "3n3Ppam7vgaVa1iaRUc9Lp")
	require.Error(t, err)

	apiErr, ok := err.(*SaveAPIError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	require.Equal(t, "http_403", apiErr.Code)
	require.Equal(t, "Insufficient client scope", apiErr.Message)
}

func TestCurrentUserDecodesProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/me", r.URL.Path)
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sp-user-1","display_name":"DJ"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), srv.URL)
	profile, err := client.CurrentUser(context.Background(), "token-123")
	require.NoError(t, err)
	require.Equal(t, "sp-user-1", profile.ID)
	require.Equal(t, "DJ", profile.DisplayName)
}

func TestCurrentUserRejectsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), srv.URL)
	_, err := client.CurrentUser(context.Background(), "stale")
	require.Error(t, err)

	apiErr, ok := err.(*SaveAPIError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
