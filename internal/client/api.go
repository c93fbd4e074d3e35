// Package client is the voice feed client: a typed HTTP API, the screen and
// capture state machine, feed polling, push subscription and waveforms.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/voiceapp/internal/domain"
)

// APIError is a non-2xx response decoded from the {"error":{...}} body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country,omitempty"`
}

type API struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) BaseURL() string { return a.base }

// WebSocketURL is the feed event stream for the current token.
func (a *API) WebSocketURL() string {
	u := a.base
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/ws?token=" + url.QueryEscape(a.Token())
}

func (a *API) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := a.doJSON(ctx, http.MethodPost, "/api/auth/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := a.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProfile sends only the non-nil fields.
func (a *API) UpdateProfile(ctx context.Context, city, country *string) (*domain.PublicUser, error) {
	body := map[string]string{}
	if city != nil {
		body["city"] = *city
	}
	if country != nil {
		body["country"] = *country
	}

	var resp struct {
		User domain.PublicUser `json:"user"`
	}
	if err := a.doJSON(ctx, http.MethodPut, "/api/auth/update", body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (a *API) Me(ctx context.Context) (*domain.PublicUser, error) {
	var resp struct {
		User domain.PublicUser `json:"user"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/user/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (a *API) UploadProfilePic(ctx context.Context, filename string, r io.Reader) (string, error) {
	var resp struct {
		ProfilePic string `json:"profilePic"`
	}
	if err := a.upload(ctx, "/api/user/profile-pic", "profilePic", filename, r, &resp); err != nil {
		return "", err
	}
	return resp.ProfilePic, nil
}

func (a *API) PostVoice(ctx context.Context, filename string, r io.Reader) error {
	return a.upload(ctx, "/api/voice", "audio", filename, r, nil)
}

func (a *API) Reply(ctx context.Context, voiceID uuid.UUID, filename string, r io.Reader) error {
	return a.upload(ctx, "/api/voice/"+voiceID.String()+"/reply", "audio", filename, r, nil)
}

func (a *API) Like(ctx context.Context, voiceID uuid.UUID, like bool) (*domain.LikeResult, error) {
	var resp domain.LikeResult
	body := map[string]bool{"like": like}
	if err := a.doJSON(ctx, http.MethodPost, "/api/voice/"+voiceID.String()+"/like", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Feed(ctx context.Context) ([]domain.FeedVoice, error) {
	var resp []domain.FeedVoice
	if err := a.doJSON(ctx, http.MethodGet, "/api/voices", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *API) Mine(ctx context.Context) ([]domain.MyVoice, error) {
	var resp []domain.MyVoice
	if err := a.doJSON(ctx, http.MethodGet, "/api/my-voices", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *API) Voice(ctx context.Context, voiceID uuid.UUID) (*domain.FeedVoice, error) {
	var resp domain.FeedVoice
	if err := a.doJSON(ctx, http.MethodGet, "/api/voice/"+voiceID.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Replies(ctx context.Context, voiceID uuid.UUID) ([]domain.FeedReply, error) {
	var resp []domain.FeedReply
	if err := a.doJSON(ctx, http.MethodGet, "/api/voice/"+voiceID.String()+"/replies", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (a *API) Delete(ctx context.Context, voiceID uuid.UUID) error {
	return a.doJSON(ctx, http.MethodDelete, "/api/voice/"+voiceID.String(), nil, nil)
}

// Audio fetches an audioUrl as returned in feed entries.
func (a *API) Audio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (a *API) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.send(req, out)
}

func (a *API) upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.send(req, out)
}

func (a *API) send(req *http.Request, out any) error {
	if tok := a.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
