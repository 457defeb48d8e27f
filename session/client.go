// Package session é o lado cliente da liveness de sessão: heartbeat
// periódico, aviso de fechamento e recuperação de sessão órfã.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrSessaoExpirada = errors.New("sessão expirada")

// APIError é uma resposta não-2xx do painel.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
}

// Client fala com os endpoints /api/sessions do painel.
type Client struct {
	http *resty.Client

	mu       sync.RWMutex
	token    string
	interval time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	h := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "painel-session/1.0")
	return &Client{http: h}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HeartbeatInterval é o intervalo informado pelo servidor no login, zero antes dele.
func (c *Client) HeartbeatInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interval
}

type loginRequest struct {
	Email string `json:"email"`
	Senha string `json:"senha"`
}

// LoginResult é o trecho da resposta de /api/login usado pelo cliente.
type LoginResult struct {
	Token            string    `json:"token"`
	SessaoID         int64     `json:"sessao_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	HeartbeatSeconds int       `json:"heartbeat_seconds"`
}

// Login abre a sessão e guarda o token e o intervalo de heartbeat.
func (c *Client) Login(ctx context.Context, email, senha string) (LoginResult, error) {
	var out LoginResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(loginRequest{Email: email, Senha: senha}).
		SetResult(&out).
		Post("/api/login")
	if err := check(resp, err); err != nil {
		return LoginResult{}, err
	}

	c.mu.Lock()
	c.token = out.Token
	c.interval = time.Duration(out.HeartbeatSeconds) * time.Second
	c.mu.Unlock()
	return out, nil
}

type heartbeatRequest struct {
	IdleSeconds int64 `json:"idle_seconds"`
}

// Heartbeat renova last_activity/expires_at. 401 vira ErrSessaoExpirada.
func (c *Client) Heartbeat(ctx context.Context, idle time.Duration) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.Token()).
		SetBody(heartbeatRequest{IdleSeconds: int64(idle.Seconds())}).
		Post("/api/sessions/heartbeat")
	return check(resp, err)
}

type closeRequest struct {
	Token  string `json:"token"`
	Motivo string `json:"motivo,omitempty"`
}

// Close avisa o fechamento da sessão atual. O corpo vai como text/plain, o
// mesmo formato aceito de navigator.sendBeacon.
func (c *Client) Close(ctx context.Context, motivo string) error {
	return c.beacon(ctx, "/api/sessions/close", closeRequest{Token: c.Token(), Motivo: motivo})
}

// ReportOrphan encerra no servidor uma sessão que ficou para trás.
func (c *Client) ReportOrphan(ctx context.Context, token string) error {
	return c.beacon(ctx, "/api/sessions/orphan", closeRequest{Token: token})
}

func (c *Client) beacon(ctx context.Context, path string, body closeRequest) error {
	if body.Token == "" {
		return errors.New("session: token vazio")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain;charset=UTF-8").
		SetBody(string(b)).
		Post(path)
	return check(resp, err)
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrSessaoExpirada, errorMessage(resp))
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: errorMessage(resp)}
}

func errorMessage(resp *resty.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return string(resp.Body())
}
