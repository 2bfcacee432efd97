package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/geleverd/geleverd-web/internal/model"
)

const (
	tokenCookieName = "admin_token"
	userCookieName  = "admin_user"
	cookieTTL       = 365 * 24 * time.Hour
)

// CookieStore хранит сессию в браузере в двух подписанных cookie: токен и профиль.
type CookieStore struct {
	signer *signer
	secure bool
}

// NewCookieStore создаёт хранилище в cookie. Пустой secret заменяется случайным ключом.
func NewCookieStore(secret string, secure bool) *CookieStore {
	return &CookieStore{
		signer: newSigner(secret),
		secure: secure,
	}
}

// Bind привязывает хранилище к запросу и ответу.
func (c *CookieStore) Bind(w http.ResponseWriter, r *http.Request) Store {
	return &cookieSession{store: c, w: w, r: r}
}

type cookieSession struct {
	store *CookieStore
	w     http.ResponseWriter
	r     *http.Request

	// Заполняется после Set/Clear, чтобы последующий Get в этом же запросе видел изменения.
	written bool
	current model.Session
	ok      bool
}

func (s *cookieSession) Get(context.Context) (model.Session, bool, error) {
	if s.written {
		return s.current, s.ok, nil
	}

	token, ok := s.read(tokenCookieName)
	if !ok || token == "" {
		return model.Session{}, false, nil
	}

	rawUser, ok := s.read(userCookieName)
	if !ok {
		return model.Session{}, false, nil
	}

	var u model.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return model.Session{}, false, nil
	}

	sess := model.Session{Token: token, User: u}
	if !sess.Complete() {
		return model.Session{}, false, nil
	}

	return sess, true, nil
}

func (s *cookieSession) Set(_ context.Context, sess model.Session) error {
	if !sess.Complete() {
		return ErrIncompleteSession
	}

	rawUser, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	expires := time.Now().Add(cookieTTL)
	s.write(tokenCookieName, s.store.signer.sign(tokenCookieName, sess.Token), expires, 0)
	s.write(userCookieName, s.store.signer.sign(userCookieName, string(rawUser)), expires, 0)

	s.written = true
	s.current = sess
	s.ok = true
	return nil
}

func (s *cookieSession) Clear(context.Context) error {
	s.write(tokenCookieName, "", time.Unix(0, 0), -1)
	s.write(userCookieName, "", time.Unix(0, 0), -1)

	s.written = true
	s.current = model.Session{}
	s.ok = false
	return nil
}

func (s *cookieSession) read(name string) (string, bool) {
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return s.store.signer.verify(name, cookie.Value)
}

func (s *cookieSession) write(name, value string, expires time.Time, maxAge int) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.store.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
