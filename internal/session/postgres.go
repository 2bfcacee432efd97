package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/geleverd/geleverd-web/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sessionIDCookieName = "geleverd_sid"

// PostgresStore хранит сессии в PostgreSQL. В браузере остаётся только подписанный идентификатор сессии.
type PostgresStore struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	signer *signer
	secure bool
	delays []time.Duration
	logger *zap.Logger
}

// NewPostgresStore подключается к БД и применяет миграции схемы сессий.
func NewPostgresStore(dsn, secret string, secure bool, logger *zap.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := newPostgresStore(stdlib.OpenDBFromPool(pool), secret, secure, logger)
	p.pool = pool

	if err := p.runMigrations(ctx); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

func newPostgresStore(db *sql.DB, secret string, secure bool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		signer: newSigner(secret),
		secure: secure,
		delays: []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
		logger: logger,
	}
}

func (p *PostgresStore) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, p.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает соединения с БД.
func (p *PostgresStore) Close() error {
	err := p.db.Close()
	if p.pool != nil {
		p.pool.Close()
	}
	return err
}

// Bind привязывает хранилище к запросу и ответу.
func (p *PostgresStore) Bind(w http.ResponseWriter, r *http.Request) Store {
	return &pgSession{store: p, w: w, r: r}
}

// Prune удаляет сессии старше ttl и возвращает число удалённых строк.
func (p *PostgresStore) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	var n int64
	err := p.withRetry(ctx, func() error {
		res, err := p.db.ExecContext(ctx,
			`DELETE FROM admin_sessions WHERE created_at < $1`,
			time.Now().Add(-ttl),
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

// StartPruning периодически удаляет устаревшие сессии до отмены контекста.
func (p *PostgresStore) StartPruning(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Prune(ctx, ttl)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Warn("session pruning failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				p.logger.Debug("pruned stale sessions", zap.Int64("count", n))
			}
		}
	}
}

func (p *PostgresStore) withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(p.delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(p.delays) {
			break
		}

		timer := time.NewTimer(p.delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}

	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

type pgSession struct {
	store *PostgresStore
	w     http.ResponseWriter
	r     *http.Request

	written bool
	id      string
	current model.Session
	ok      bool
}

func (s *pgSession) sessionID() (string, bool) {
	if s.written {
		return s.id, s.id != ""
	}

	cookie, err := s.r.Cookie(sessionIDCookieName)
	if err != nil {
		return "", false
	}

	id, ok := s.store.signer.verify(sessionIDCookieName, cookie.Value)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (s *pgSession) Get(ctx context.Context) (model.Session, bool, error) {
	if s.written {
		return s.current, s.ok, nil
	}

	id, ok := s.sessionID()
	if !ok {
		return model.Session{}, false, nil
	}

	var sess model.Session
	err := s.store.withRetry(ctx, func() error {
		return s.store.db.QueryRowContext(ctx,
			`SELECT token, username, email, role, created_at FROM admin_sessions WHERE id = $1`,
			id,
		).Scan(&sess.Token, &sess.User.Username, &sess.User.Email, &sess.User.Role, &sess.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, fmt.Errorf("get session: %w", err)
	}

	if !sess.Complete() {
		return model.Session{}, false, nil
	}

	return sess, true, nil
}

func (s *pgSession) Set(ctx context.Context, sess model.Session) error {
	if !sess.Complete() {
		return ErrIncompleteSession
	}

	oldID, hadOld := s.sessionID()
	id := uuid.NewString()

	// Токен и профиль лежат в одной строке, поэтому одна вставка записывает их атомарно.
	err := s.store.withRetry(ctx, func() error {
		_, err := s.store.db.ExecContext(ctx,
			`INSERT INTO admin_sessions (id, token, username, email, role) VALUES ($1, $2, $3, $4, $5)`,
			id, sess.Token, sess.User.Username, sess.User.Email, sess.User.Role,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	// Старая строка станет недостижимой после смены cookie; её удалит Prune.
	if hadOld {
		if err := s.deleteRow(ctx, oldID); err != nil {
			s.store.logger.Warn("delete replaced session failed",
				zap.Error(err),
				zap.String("session_id", oldID),
			)
		}
	}

	s.writeCookie(s.store.signer.sign(sessionIDCookieName, id), time.Now().Add(cookieTTL), 0)

	s.written = true
	s.id = id
	s.current = sess
	s.ok = true
	return nil
}

func (s *pgSession) Clear(ctx context.Context) error {
	id, ok := s.sessionID()

	s.writeCookie("", time.Unix(0, 0), -1)
	s.written = true
	s.id = ""
	s.current = model.Session{}
	s.ok = false

	if !ok {
		return nil
	}

	if err := s.deleteRow(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *pgSession) deleteRow(ctx context.Context, id string) error {
	return s.store.withRetry(ctx, func() error {
		_, err := s.store.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
		return err
	})
}

func (s *pgSession) writeCookie(value string, expires time.Time, maxAge int) {
	http.SetCookie(s.w, &http.Cookie{
		Name:     sessionIDCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.store.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
