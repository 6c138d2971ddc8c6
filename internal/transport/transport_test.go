package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/teamsync/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   Authenticator
		header string
		want   string
	}{
		{name: "token", auth: &TokenAuth{}, header: "Authorization", want: "token secret"},
		{name: "bearer", auth: &BearerAuth{}, header: "Authorization", want: "Bearer secret"},
		{name: "header", auth: &HeaderAuth{Header: "X-Api-Key"}, header: "X-Api-Key", want: "secret"},
		{name: "none", auth: &NoAuth{}, header: "Authorization", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			tt.auth.Apply(req, "secret")
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}
}

func TestReadToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("  abc123  \nsecond line\n"), 0o600))

	token, err := ReadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ReadToken(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTokenRequired)
	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = ReadToken(empty)
	assert.ErrorIs(t, err, errors.ErrTokenRequired)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.codeberg-token")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".codeberg-token"), got)

	got, err = ExpandHome("/etc/token")
	require.NoError(t, err)
	assert.Equal(t, "/etc/token", got)
}

func TestNextLink(t *testing.T) {
	h := http.Header{}
	h.Add("Link", `<https://x/api?page=3>; rel="next", <https://x/api?page=9>; rel="last"`)
	assert.Equal(t, "https://x/api?page=3", NextLink(h))

	h = http.Header{}
	h.Add("Link", `<https://x/api?page=1>; rel="first"`)
	assert.Equal(t, "", NextLink(h))
	assert.Equal(t, "", NextLink(http.Header{}))
}

func TestDecodeResponseErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"user does not exist"}`))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := New("codeberg", srv.URL, WithAuth(&TokenAuth{}, "t"))
	ctx := context.Background()

	_, err := c.Get(ctx, "/missing", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "user does not exist", apiErr.Message)
	assert.Equal(t, "GET /missing", apiErr.Endpoint)

	_, err = c.Get(ctx, "/limited", nil, nil)
	assert.True(t, errors.IsRateLimited(err))

	_, err = c.Get(ctx, "/down", nil, nil)
	assert.True(t, errors.IsPlatformUnavailable(err))

	assert.NoError(t, c.Send(ctx, http.MethodPut, "/teams/1/members/alice", nil, nil))
}

func TestGetAllFollowsLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token t", r.Header.Get("Authorization"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
		}
		if page < 3 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/items?page=%d>; rel="next"`, srv.URL, page+1))
		}
		_, _ = fmt.Fprintf(w, `[{"login":"user%d"}]`, page)
	}))
	defer srv.Close()

	c := New("codeberg", srv.URL, WithAuth(&TokenAuth{}, "t"))
	items, err := GetAll[struct{ Login string }](context.Background(), c, "/items", nil, 100)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "user3", items[2].Login)
}

func TestGetAllCounted(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("X-Total-Count", "3")
		if page == 1 {
			_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":3}]`))
	}))
	defer srv.Close()

	c := New("codeberg", srv.URL)
	items, err := GetAllCounted[struct{ ID int }](context.Background(), c, "/orgs/gentoo/teams", nil, 2)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, 2, requests)
}

func TestGetAllStopsOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Link", `<`+"http://"+r.Host+`/items?page=2>; rel="next"`)
		_, _ = w.Write([]byte(`[{"login":"a"}]`))
	}))
	defer srv.Close()

	c := New("codeberg", srv.URL)
	items, err := GetAll[struct{ Login string }](context.Background(), c, "/items", nil, 100)
	assert.Nil(t, items, "partial listings are never returned")
	assert.True(t, errors.IsPlatformUnavailable(err))
}
