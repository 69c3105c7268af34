package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

var (
	ErrInvalidEmail    = errors.New("please enter a valid email address")
	ErrInvalidPassword = errors.New("password must be at least 6 characters long")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password accepted by the account forms.
const MinPasswordLength = 6

// Credentials are sent to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is sent to the register endpoint.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APIError is a rejection reported by the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

// ValidateEmail checks the basic shape of an email address.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

// Login authenticates the user.
func (c *BackendAPIClient) Login(ctx context.Context, creds Credentials) error {
	if err := ValidateEmail(creds.Email); err != nil {
		return err
	}
	if err := ValidatePassword(creds.Password); err != nil {
		return err
	}
	return c.postAccount(ctx, "/login", creds, "Login failed")
}

// Register creates a new account.
func (c *BackendAPIClient) Register(ctx context.Context, reg Registration) error {
	if err := ValidateEmail(reg.Email); err != nil {
		return err
	}
	if err := ValidatePassword(reg.Password); err != nil {
		return err
	}
	return c.postAccount(ctx, "/register", reg, "Registration failed")
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *BackendAPIClient) postAccount(ctx context.Context, path string, payload any, fallback string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if isSuccess(res.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return nil
	}

	var msg messageResponse
	_ = json.NewDecoder(io.LimitReader(res.Body, 4<<10)).Decode(&msg)
	if msg.Message == "" {
		msg.Message = fallback
	}
	return &APIError{StatusCode: res.StatusCode, Message: msg.Message}
}
