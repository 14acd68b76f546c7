// Package store talks to the spreadsheet web app that owns every record.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/CamHV12/edupulse/internal/exam"
)

var (
	// ErrUnavailable wraps transport failures and non-2xx answers.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidCredentials is a login the store turned down.
	ErrInvalidCredentials = errors.New("invalid account or password")
	// ErrRejected is a write the store answered with success=false.
	ErrRejected = errors.New("store rejected the request")
)

// Refusal carries the store's own message for a refused login or write.
type Refusal struct {
	Action  string
	Message string
	kind    error
}

func (r *Refusal) Error() string { return r.Action + ": " + r.Message }
func (r *Refusal) Unwrap() error { return r.kind }

type Config struct {
	URL     string
	Timeout time.Duration
	// Optional client credentials for a store behind an OAuth2 proxy.
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type Client struct {
	http *http.Client
	url  string
}

func New(cfg Config) *Client {
	h := &http.Client{}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}
	return &Client{http: h, url: cfg.URL}
}

var _ exam.Store = (*Client)(nil)

// Snapshot fetches every sheet in one call (?action=init).
func (c *Client) Snapshot(ctx context.Context) (exam.Snapshot, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return exam.Snapshot{}, errors.Wrap(err, "store url")
	}
	q := u.Query()
	q.Set("action", "init")
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return exam.Snapshot{}, errors.Wrap(err, "init")
	}
	var p initPayload
	if err := c.do(req, "init", &p); err != nil {
		return exam.Snapshot{}, err
	}
	return p.snapshot(), nil
}

type ack struct {
	Success *bool    `json:"success"`
	Message string   `json:"message"`
	User    wireUser `json:"user"`
}

func (a ack) refused() bool { return a.Success != nil && !*a.Success }

func (c *Client) Login(ctx context.Context, account, password string) (exam.User, error) {
	var a ack
	err := c.post(ctx, map[string]any{"action": "login", "account": account, "password": password}, &a)
	if err != nil {
		return exam.User{}, err
	}
	if a.Success == nil || !*a.Success {
		msg := a.Message
		if msg == "" {
			msg = ErrInvalidCredentials.Error()
		}
		return exam.User{}, &Refusal{Action: "login", Message: msg, kind: ErrInvalidCredentials}
	}
	return a.User.user(), nil
}

func (c *Client) SubmitResult(ctx context.Context, r exam.Result) error {
	var a ack
	if err := c.post(ctx, map[string]any{"action": "submitResult", "result": toWire(r)}, &a); err != nil {
		return err
	}
	return refusal("submitResult", a)
}

func (c *Client) SaveItem(ctx context.Context, sheet string, item map[string]any, idKey string) error {
	var a ack
	body := map[string]any{"action": "saveItem", "sheetName": sheet, "item": item, "idKey": idKey}
	if err := c.post(ctx, body, &a); err != nil {
		return err
	}
	return refusal("saveItem", a)
}

func (c *Client) DeleteItem(ctx context.Context, sheet string, idValue any, idKey string) error {
	var a ack
	body := map[string]any{"action": "deleteItem", "sheetName": sheet, "idValue": idValue, "idKey": idKey}
	if err := c.post(ctx, body, &a); err != nil {
		return err
	}
	return refusal("deleteItem", a)
}

// Logout is a beacon; the store's answer is not inspected.
func (c *Client) Logout(ctx context.Context, name string) error {
	return c.post(ctx, map[string]any{"action": "logout", "name": name}, nil)
}

func refusal(action string, a ack) error {
	if !a.refused() {
		return nil
	}
	msg := a.Message
	if msg == "" {
		msg = ErrRejected.Error()
	}
	return &Refusal{Action: action, Message: msg, kind: ErrRejected}
}

// post sends body as a plain-text JSON document, the only content type the
// web app accepts without a preflight.
func (c *Client) post(ctx context.Context, body map[string]any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	action, _ := body["action"].(string)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, action)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	return c.do(req, action, out)
}

func (c *Client) do(req *http.Request, action string, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "%s: %v", action, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return errors.Wrap(ErrUnavailable, fmt.Sprintf("%s: %s", action, res.Status))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(ErrUnavailable, "%s: decode: %v", action, err)
	}
	return nil
}
