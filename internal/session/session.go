// Package session управляет сессией hosted-бэкенда аутентификации.
//
// Сервис носит bearer-токен, выданный бэкендом, и перед каждым
// использованием проверяет его срок жизни по claim exp. Протухший токен
// обновляется ровно один раз за обращение; если обновление не удалось,
// возвращается ErrSessionExpired. Подпись токена здесь не проверяется:
// её валидирует сам бэкенд на каждом проксируемом запросе.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
)

// ErrSessionExpired возвращается, когда токен протух и тихое обновление
// не удалось. Пользователю нужно войти заново.
var ErrSessionExpired = errors.New("session expired")

// Source отдаёт действующий токен сессии.
type Source interface {
	Token(ctx context.Context) (string, error)
}

// Manager хранит пару access/refresh токенов и обновляет их через
// эндпоинт бэкенда аутентификации.
type Manager struct {
	authURL      string
	httpClient   *http.Client
	clk          clock.Clock
	expiryLeeway time.Duration

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewManager создает Manager с начальной парой токенов.
func NewManager(authURL, accessToken, refreshToken string, leeway time.Duration, timeout time.Duration, clk clock.Clock) *Manager {
	return &Manager{
		authURL:      authURL,
		httpClient:   &http.Client{Timeout: timeout},
		clk:          clk,
		expiryLeeway: leeway,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// Token возвращает действующий access-токен. Протухший токен обновляется
// однократно; параллельные вызовы делят одно обновление за счёт мьютекса.
func (m *Manager) Token(ctx context.Context) (string, error) {
	const op = "session.Token"

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != "" && !m.stale(m.accessToken) {
		return m.accessToken, nil
	}

	if err := m.refreshLocked(ctx); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrSessionExpired, err)
	}
	return m.accessToken, nil
}

// SetTokens заменяет пару токенов, например после ручного входа.
func (m *Manager) SetTokens(accessToken, refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
}

func (m *Manager) stale(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.After(m.clk.Now().Add(m.expiryLeeway))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (m *Manager) refreshLocked(ctx context.Context) error {
	const op = "session.refresh"

	if m.refreshToken == "" {
		return fmt.Errorf("%s: no refresh token", op)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(refreshRequest{RefreshToken: m.refreshToken}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := m.authURL + "/auth/v1/token?grant_type=refresh_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var body refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body.AccessToken == "" {
		return fmt.Errorf("%s: empty access token in response", op)
	}

	m.accessToken = body.AccessToken
	if body.RefreshToken != "" {
		m.refreshToken = body.RefreshToken
	}
	return nil
}

// UserID извлекает идентификатор пользователя (claim sub) из токена
// без проверки подписи. Используется HTTP-middleware.
func UserID(token string) (string, error) {
	const op = "session.UserID"

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%s: missing sub claim", op)
	}
	return sub, nil
}

// Static — Source с фиксированным токеном, для тестов и CLI-утилит.
type Static string

// Token возвращает фиксированный токен.
func (s Static) Token(context.Context) (string, error) { return string(s), nil }
