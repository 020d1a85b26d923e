// Package api provides a client for the crowdsourced fuel price API:
// authentication, user profile, price list, gas stations and price
// submission.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rubiojr/gasprice/pkg/fuel"
)

const (
	DefaultBaseURL = "https://gas-price-api.vercel.app"
	DefaultTimeout = 30 * time.Second

	requestIDHeader = "X-Request-Id"
)

// Observer is notified of every request the client completes.
// outcome is "ok", "rejected", "error" or "network".
type Observer interface {
	ObserveRequest(endpoint, outcome string)
}

// FuelPriceAPI is the remote API client. All authenticated methods return
// ErrAuthenticationMissing without touching the network when token is empty.
type FuelPriceAPI struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	observer   Observer
	validate   *validator.Validate
}

// Option configures a FuelPriceAPI.
type Option func(*FuelPriceAPI)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(api *FuelPriceAPI) {
		api.httpClient = c
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(api *FuelPriceAPI) {
		api.log = logger
	}
}

// WithObserver registers a request observer.
func WithObserver(o Observer) Option {
	return func(api *FuelPriceAPI) {
		api.observer = o
	}
}

// NewFuelPriceAPI creates a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewFuelPriceAPI(baseURL string, opts ...Option) *FuelPriceAPI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	api := &FuelPriceAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log:      slog.New(slog.DiscardHandler),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Login exchanges credentials for a session token.
func (api *FuelPriceAPI) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := api.check(req); err != nil {
		return "", err
	}

	var resp tokenResponse
	err := api.do(ctx, http.MethodPost, "/login", "", req, &resp)
	if err != nil {
		if errors.Is(err, ErrAuthenticationRejected) {
			return "", ErrInvalidCredentials
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return "", fmt.Errorf("%w: %s", ErrInvalidCredentials, statusErr.Message)
		}
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response without token")
	}
	return resp.Token, nil
}

// Register creates an account and returns its session token.
func (api *FuelPriceAPI) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if err := api.check(req); err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := api.do(ctx, http.MethodPost, "/register", "", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("register response without token")
	}
	return resp.Token, nil
}

// ValidateToken asks the server whether token is still accepted. A 401 or
// 403 answer is reported as an invalid token, not as an error.
func (api *FuelPriceAPI) ValidateToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, ErrAuthenticationMissing
	}

	var resp validateResponse
	err := api.do(ctx, http.MethodPost, "/validate-token", "", validateRequest{Token: token}, &resp)
	if errors.Is(err, ErrAuthenticationRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Profile returns the authenticated user.
func (api *FuelPriceAPI) Profile(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrAuthenticationMissing
	}

	var user User
	if err := api.do(ctx, http.MethodGet, "/register-userId", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes the authenticated user's account.
func (api *FuelPriceAPI) DeleteUser(ctx context.Context, token string) error {
	if token == "" {
		return ErrAuthenticationMissing
	}
	return api.do(ctx, http.MethodDelete, "/delete-userId", token, nil, nil)
}

// FuelPrices fetches the crowdsourced price list.
func (api *FuelPriceAPI) FuelPrices(ctx context.Context, token string, filters Filters) ([]fuel.Record, error) {
	if token == "" {
		return nil, ErrAuthenticationMissing
	}

	path := "/fuel-prices"
	if q := filters.values().Encode(); q != "" {
		path += "?" + q
	}

	var records []fuel.Record
	if err := api.do(ctx, http.MethodGet, path, token, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GasStations lists the known gas stations.
func (api *FuelPriceAPI) GasStations(ctx context.Context, token string) ([]fuel.GasStation, error) {
	if token == "" {
		return nil, ErrAuthenticationMissing
	}

	var stations []fuel.GasStation
	if err := api.do(ctx, http.MethodGet, "/gas-stations", token, nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// SubmitFuelPrice reports a new price. The submission is validated before
// the token is looked at.
func (api *FuelPriceAPI) SubmitFuelPrice(ctx context.Context, token string, s Submission) error {
	if err := api.check(s); err != nil {
		return err
	}
	if token == "" {
		return ErrAuthenticationMissing
	}
	return api.do(ctx, http.MethodPost, "/fuel-price", token, s, nil)
}

func (api *FuelPriceAPI) check(v any) error {
	err := api.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("error validating request: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// do performs a JSON request. Non-OK statuses become ErrAuthenticationRejected
// (401/403 on authenticated calls) or *StatusError; transport failures
// become *NetworkError.
func (api *FuelPriceAPI) do(ctx context.Context, method, path, token string, body, out any) error {
	endpoint := strings.SplitN(path, "?", 2)[0]

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	api.log.Debug("api request", "method", method, "endpoint", endpoint, "request_id", req.Header.Get(requestIDHeader))

	resp, err := api.httpClient.Do(req)
	if err != nil {
		api.observe(endpoint, "network")
		return &NetworkError{Op: "fetching " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		api.observe(endpoint, "network")
		return &NetworkError{Op: "reading response body", Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := errorMessage(data)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			api.observe(endpoint, "rejected")
			if msg == "" {
				return ErrAuthenticationRejected
			}
			return fmt.Errorf("%w: %s", ErrAuthenticationRejected, msg)
		}
		api.observe(endpoint, "error")
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	api.observe(endpoint, "ok")
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error unmarshaling JSON: %w", err)
	}
	return nil
}

func (api *FuelPriceAPI) observe(endpoint, outcome string) {
	if api.observer != nil {
		api.observer.ObserveRequest(endpoint, outcome)
	}
}

func errorMessage(data []byte) string {
	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		return strings.TrimSpace(string(data))
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}
