package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geleverd/geleverd-web/internal/model"
)

func cookiesAfterSet(t *testing.T, c *CookieStore, s model.Session) []*http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)

	require.NoError(t, c.Bind(rec, req).Set(context.Background(), s))
	return rec.Result().Cookies()
}

func TestCookieStore_SurvivesReload(t *testing.T) {
	c := NewCookieStore("test-secret", false)
	cookies := cookiesAfterSet(t, c, testSession)
	require.Len(t, cookies, 2)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	got, ok, err := c.Bind(httptest.NewRecorder(), req).Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSession, got)
}

func TestCookieStore_PartialCookiesReadAsEmpty(t *testing.T) {
	c := NewCookieStore("test-secret", false)
	cookies := cookiesAfterSet(t, c, testSession)

	for _, keep := range []string{tokenCookieName, userCookieName} {
		t.Run("only "+keep, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
			for _, ck := range cookies {
				if ck.Name == keep {
					req.AddCookie(ck)
				}
			}

			_, ok, err := c.Bind(httptest.NewRecorder(), req).Get(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCookieStore_TamperedCookieReadsAsEmpty(t *testing.T) {
	c := NewCookieStore("test-secret", false)
	cookies := cookiesAfterSet(t, c, testSession)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	for _, ck := range cookies {
		if ck.Name == tokenCookieName {
			ck.Value = "dG9rMg." + ck.Value[len("dG9rMQ."):]
		}
		req.AddCookie(ck)
	}

	_, ok, err := c.Bind(httptest.NewRecorder(), req).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieStore_OtherSecretRejected(t *testing.T) {
	cookies := cookiesAfterSet(t, NewCookieStore("secret-a", false), testSession)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	_, ok, err := NewCookieStore("secret-b", false).Bind(httptest.NewRecorder(), req).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCookieStore_ClearExpiresBothCookies(t *testing.T) {
	c := NewCookieStore("test-secret", true)
	cookies := cookiesAfterSet(t, c, testSession)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	bound := c.Bind(rec, req)
	require.NoError(t, bound.Clear(context.Background()))

	_, ok, err := bound.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "cleared session must not be visible within the same request")

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 2)
	for _, ck := range cleared {
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0)
		assert.True(t, ck.Secure)
	}
}

func TestCookieStore_SetRejectsPartial(t *testing.T) {
	c := NewCookieStore("test-secret", false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)

	err := c.Bind(rec, req).Set(context.Background(), model.Session{Token: "tok1"})
	require.ErrorIs(t, err, ErrIncompleteSession)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSigner_RoundTrip(t *testing.T) {
	s := newSigner("k")

	signed := s.sign("name", "value")
	got, ok := s.verify("name", signed)
	require.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = s.verify("other", signed)
	assert.False(t, ok, "signature is bound to the cookie name")

	_, ok = s.verify("name", "garbage")
	assert.False(t, ok)
}
