package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/securenotes/apiserver/internal/audit"
	"github.com/securenotes/apiserver/internal/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	principals map[string]*Principal
	calls      int
}

func (s *stubLoader) LoadPrincipal(_ context.Context, username string) (*Principal, error) {
	s.calls++
	p, ok := s.principals[username]
	if !ok {
		return nil, failure.New(failure.ErrNotFound, "user not found with username: %s", username)
	}
	return p, nil
}

func active(username, authority string) *Principal {
	return &Principal{
		Username:              username,
		Authority:             authority,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
	}
}

// serve runs the request through Authenticate and returns the principal the
// downstream handler saw.
func serve(t *testing.T, codec *TokenCodec, loader PrincipalLoader, events audit.Emitter, header string) *Principal {
	t.Helper()
	var seen *Principal
	called := false
	handler := Authenticate(codec, loader, events)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/notes/allNotes", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, called, "authentication never rejects on its own")
	return seen
}

func TestAuthenticate_BindsPrincipal(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Now())
	loader := &stubLoader{principals: map[string]*Principal{"alice": active("alice", AuthorityUser)}}
	token, err := codec.Issue(&Principal{Username: "alice"})
	require.NoError(t, err)

	seen := serve(t, codec, loader, nil, "Bearer "+token)
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.Username)

	seen = serve(t, codec, loader, nil, "bearer "+token)
	require.NotNil(t, seen)
	assert.Equal(t, 2, loader.calls, "principal is reloaded per request")
}

func TestAuthenticate_LeavesAnonymous(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Now())
	disabled := active("dave", AuthorityUser)
	disabled.Enabled = false
	loader := &stubLoader{principals: map[string]*Principal{
		"alice": active("alice", AuthorityUser),
		"dave":  disabled,
	}}

	ghostToken, err := codec.Issue(&Principal{Username: "ghost"})
	require.NoError(t, err)
	daveToken, err := codec.Issue(&Principal{Username: "dave"})
	require.NoError(t, err)
	aliceToken, err := codec.Issue(&Principal{Username: "alice"})
	require.NoError(t, err)

	headers := map[string]string{
		"no header":       "",
		"basic scheme":    "Basic YWxpY2U6c2VjcmV0",
		"empty bearer":    "Bearer ",
		"garbage token":   "Bearer not.a.jwt",
		"tampered token":  "Bearer " + tamper(t, aliceToken),
		"unknown subject": "Bearer " + ghostToken,
		"disabled user":   "Bearer " + daveToken,
	}
	for name, header := range headers {
		assert.Nil(t, serve(t, codec, loader, nil, header), name)
	}
}

func TestAuthenticate_EmitsTokenRejected(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Now())
	events := &recordingEmitter{}
	serve(t, codec, &stubLoader{}, events, "Bearer garbage")

	assert.Equal(t, []audit.EventType{audit.EventTokenRejected}, events.types())
}

func TestAuthenticate_NoStaleIdentityAcrossRequests(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t, time.Now())
	loader := &stubLoader{principals: map[string]*Principal{"alice": active("alice", AuthorityUser)}}
	token, err := codec.Issue(&Principal{Username: "alice"})
	require.NoError(t, err)

	require.NotNil(t, serve(t, codec, loader, nil, "Bearer "+token))
	assert.Nil(t, serve(t, codec, loader, nil, ""))
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"", "", false},
		{"Bearer abc", "abc", true},
		{"BEARER   abc ", "abc", true},
		{"Bearer", "", true},
		{"Token abc", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		token, ok := bearerToken(req)
		assert.Equal(t, tc.token, token, tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
	}
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, PrincipalFromContext(context.Background()))
	ctx := WithPrincipal(context.Background(), nil)
	assert.Nil(t, PrincipalFromContext(ctx))
}
