// Package galleryapi клиент HTTP API бэкенда ImageTales.
package galleryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"imagetales/internal/domain/models"
	"imagetales/internal/transport/http/dto"

	"github.com/cenkalti/backoff/v4"
)

const defaultRetryWait = 200 * time.Millisecond

var errNoRefreshToken = errors.New("galleryapi: no refresh token")

// APIError неуспешный ответ бэкенда
type APIError struct {
	StatusCode int
	Message    string // поле error из тела ответа, если есть
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("galleryapi: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("galleryapi: unexpected status %d", e.StatusCode)
}

// TokenSource отдает текущий access-токен. Пустая строка означает анонимный запрос.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, error) {
	return f(ctx)
}

// Session хранит токены. Через нее клиент обновляет пару, когда бэкенд отвечает 401.
type Session interface {
	TokenSource
	RefreshToken(ctx context.Context) (string, error)
	SaveTokens(ctx context.Context, pair *models.TokenPair) error
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	session   Session
	retryWait time.Duration

	refreshMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout задает таймаут на весь запрос. 0 оставляет таймаут транспорта.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithSession включает обновление токенов по refresh-токену при ответе 401
func WithSession(s Session) Option {
	return func(c *Client) {
		c.tokens = s
		c.session = s
	}
}

func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		c.retryWait = d
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("galleryapi: invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("galleryapi: base url must be absolute: %q", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{},
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ResolveURL оставляет абсолютный адрес как есть, относительный разрешает от адреса бэкенда
func (c *Client) ResolveURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host != "" {
		if u.Scheme == "" {
			u.Scheme = c.baseURL.Scheme
			return u.String()
		}
		return raw
	}

	return c.baseURL.ResolveReference(&url.URL{
		Path:     strings.TrimPrefix(u.Path, "/"),
		RawQuery: u.RawQuery,
	}).String()
}

func (c *Client) ListGallery(ctx context.Context) ([]models.Image, error) {
	var images []models.Image
	if err := c.getJSON(ctx, "gallery/all", &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Client) ListMine(ctx context.Context) ([]models.Image, error) {
	var images []models.Image
	if err := c.getJSON(ctx, "gallery/user", &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (c *Client) ToggleLike(ctx context.Context, imageID string) (models.LikeResult, error) {
	var result models.LikeResult
	if err := c.postJSON(ctx, "gallery/like/"+url.PathEscape(imageID), nil, &result); err != nil {
		return models.LikeResult{}, err
	}
	return result, nil
}

type envelope[T any] struct {
	Status string `json:"status"`
	Data   T      `json:"data"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	var resp envelope[models.TokenPair]
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*models.TokenPair, error) {
	var resp envelope[models.TokenPair]
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.postJSON(ctx, "auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (dto.ProfileResponse, error) {
	var resp envelope[dto.ProfileResponse]
	if err := c.getJSON(ctx, "auth/profile", &resp); err != nil {
		return dto.ProfileResponse{}, err
	}
	return resp.Data, nil
}

// Download пишет тело изображения в w и возвращает число записанных байт
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, c.ResolveURL(rawURL), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("galleryapi: read body: %w", err)
	}
	return n, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.send(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeBody(resp, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("galleryapi: encode request: %w", err)
		}
	}

	resp, err := c.send(ctx, http.MethodPost, c.endpoint(path), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return decodeBody(resp, out)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.ResolveReference(&url.URL{Path: path}).String()
}

// send выполняет запрос. При 401 от бэкенда токены обновляются и запрос повторяется один раз.
// При успехе вызывающий закрывает тело ответа.
func (c *Client) send(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	if c.session == nil || !c.refreshable(target) {
		return c.sendOnce(ctx, method, target, body)
	}

	stale, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("galleryapi: access token: %w", err)
	}

	resp, err := c.sendOnce(ctx, method, target, body)

	var apiErr *APIError
	if stale == "" || !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if refreshErr := c.refreshSession(ctx, stale); refreshErr != nil {
		return nil, err
	}

	return c.sendOnce(ctx, method, target, body)
}

// refreshSession меняет refresh-токен на новую пару. Если пару уже обновил
// параллельный запрос, повторный обмен не выполняется.
func (c *Client) refreshSession(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current, err := c.session.AccessToken(ctx)
	if err != nil {
		return err
	}
	if current != stale {
		return nil
	}

	refreshToken, err := c.session.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		return errNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}

	resp, err := c.sendOnce(ctx, http.MethodPost, c.endpoint("auth/refresh"), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out envelope[models.TokenPair]
	if err := decodeBody(resp, &out); err != nil {
		return err
	}

	return c.session.SaveTokens(ctx, &out.Data)
}

// refreshable запросы к бэкенду, кроме входа и регистрации: там 401 означает неверные данные
func (c *Client) refreshable(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host != c.baseURL.Host {
		return false
	}

	switch strings.TrimPrefix(u.Path, c.baseURL.Path) {
	case "auth/login", "auth/register", "auth/refresh":
		return false
	}
	return true
}

// sendOnce выполняет запрос без обновления токенов. GET повторяется один раз при сетевой ошибке или 5xx.
func (c *Client) sendOnce(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var resp *http.Response

	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("galleryapi: build request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		if c.tokens != nil && req.URL.Host == c.baseURL.Host {
			token, err := c.tokens.AccessToken(ctx)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("galleryapi: access token: %w", err))
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		r, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("galleryapi: %s %s: %w", method, target, err)
		}

		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}

		apiErr := readAPIError(r)
		if r.StatusCode >= 500 {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}

	if method != http.MethodGet {
		err := attempt()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return resp, err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryWait), 1),
		ctx,
	)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}

	return resp, nil
}

func readAPIError(r *http.Response) *APIError {
	defer r.Body.Close()

	apiErr := &APIError{StatusCode: r.StatusCode}

	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &payload) == nil {
		apiErr.Message = payload.Error
	}

	return apiErr
}

func decodeBody(resp *http.Response, out interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("galleryapi: decode response: %w", err)
	}
	return nil
}

// ErrorMessage возвращает текст ошибки сервера, если он был в ответе
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
