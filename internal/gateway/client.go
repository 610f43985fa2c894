// Package gateway реализует клиент прокси-бэкенда платёжного шлюза NotchPay.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kamerunnews/premium-activation/internal/session"
)

// ErrWrongAmount возвращается, когда сумма не совпадает с единственной
// настроенной ценой. Проверка выполняется до любого сетевого вызова,
// чтобы ошибка вызывающего кода не привела к списанию не той суммы.
var ErrWrongAmount = errors.New("amount does not match the configured price")

// Client — HTTP-клиент прокси-бэкенда платежей.
type Client struct {
	baseURL    string
	price      int
	session    session.Source
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза.
func NewClient(baseURL string, price int, src session.Source, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		price:      price,
		session:    src,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, authed bool) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// CreatePayment создаёт платёжный интент на настроенную сумму и возвращает
// референцию с URL hosted-чекаута. Сообщение об ошибке бэкенда передаётся
// вызывающему дословно.
func (c *Client) CreatePayment(ctx context.Context, amount int, description string) (*PaymentIntent, error) {
	const op = "gateway.CreatePayment"

	if amount != c.price {
		return nil, fmt.Errorf("%s: %w: got %d, want %d", op, ErrWrongAmount, amount, c.price)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/payments/initialize", initializeRequest{
		Amount:      amount,
		Description: description,
		Phone:       "",
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body initializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body.Message
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = "unexpected status: " + resp.Status
		}
		return nil, fmt.Errorf("%s: %s", op, msg)
	}

	checkoutURL := body.Data.AuthorizationURL
	if checkoutURL == "" {
		checkoutURL = body.Data.CheckoutURL
	}
	if checkoutURL == "" {
		return nil, fmt.Errorf("%s: payment url missing in gateway response", op)
	}

	mode := body.Mode
	if mode == "" {
		if strings.Contains(checkoutURL, "/test.") {
			mode = "test"
		} else {
			mode = "live"
		}
	}

	return &PaymentIntent{
		Reference:     body.Data.Reference,
		CheckoutURL:   checkoutURL,
		TransactionID: body.Data.TransactionID,
		Mode:          mode,
	}, nil
}

// VerifyRaw запрашивает статус платежа по референции и возвращает ответ
// шлюза вместе с HTTP-кодом, без классификации.
func (c *Client) VerifyRaw(ctx context.Context, reference string) (*RawVerification, error) {
	const op = "gateway.VerifyRaw"

	req, err := c.newRequest(ctx, http.MethodGet, "/api/payments/verify/"+reference, nil, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw := &RawVerification{StatusCode: resp.StatusCode}
	// Пустое или неразборчивое тело при 2xx остаётся нулевым VerifyBody
	// и классифицируется выше как pending.
	_ = json.NewDecoder(resp.Body).Decode(&raw.Body)
	return raw, nil
}

// Config запрашивает публичную конфигурацию шлюза (индикатор test/live).
// Эндпоинт не требует аутентификации.
func (c *Client) Config(ctx context.Context) (*GatewayConfig, error) {
	const op = "gateway.Config"

	req, err := c.newRequest(ctx, http.MethodGet, "/api/payments/config", nil, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var cfg GatewayConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}
