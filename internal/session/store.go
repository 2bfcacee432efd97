// Package session хранит токен администратора и его профиль между запросами.
package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/geleverd/geleverd-web/internal/model"
)

// ErrIncompleteSession возвращается при попытке сохранить сессию без токена или без профиля.
var ErrIncompleteSession = errors.New("session must carry both token and user")

// Store хранит не более одной сессии. Токен и профиль записываются и удаляются вместе;
// частично заполненное состояние наружу не отдаётся.
type Store interface {
	Get(ctx context.Context) (model.Session, bool, error)
	Set(ctx context.Context, s model.Session) error
	Clear(ctx context.Context) error
}

// Provider выдаёт хранилище сессии, привязанное к конкретному HTTP-запросу.
type Provider interface {
	Bind(w http.ResponseWriter, r *http.Request) Store
}

// Static возвращает Provider, который для любого запроса отдаёт одно и то же хранилище.
func Static(s Store) Provider {
	return staticProvider{store: s}
}

type staticProvider struct {
	store Store
}

func (p staticProvider) Bind(http.ResponseWriter, *http.Request) Store {
	return p.store
}
