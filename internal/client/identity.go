package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// CredentialStore keeps the identity triple for the duration of one visit,
// the way a browser tab keeps it in session storage. Establishing a fresh
// identity replaces the previous one.
type CredentialStore interface {
	Save(identity domain.Identity)
	Load() (domain.Identity, bool)
	Clear()
}

// AuthClient talks to the HTTP auth boundary. The realtime core only consumes
// the resulting identity triple.
type AuthClient struct {
	baseURL string
	httpc   *http.Client
}

// NewAuthClient builds an auth client for the given base URL.
func NewAuthClient(baseURL string, httpc *http.Client) *AuthClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &AuthClient{baseURL: baseURL, httpc: httpc}
}

type registerRequest struct {
	Name     string `json:"name,omitempty"`
	Pseudo   string `json:"pseudo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	ParticipantID string `json:"participantId"`
	Pseudo        string `json:"pseudo"`
	IsAdmin       bool   `json:"isAdmin"`
	Error         string `json:"error,omitempty"`
}

// Register exchanges account details for a durable identity.
func (c *AuthClient) Register(ctx context.Context, name, pseudo, email, password string) (domain.Identity, error) {
	return c.post(ctx, "/api/register", registerRequest{Name: name, Pseudo: pseudo, Email: email, Password: password})
}

// Login exchanges credentials for a durable identity.
func (c *AuthClient) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	return c.post(ctx, "/api/login", loginRequest{Email: email, Password: password})
}

func (c *AuthClient) post(ctx context.Context, path string, body any) (domain.Identity, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return domain.Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.Identity{}, err
	}
	defer resp.Body.Close()

	var decoded authResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Identity{}, fmt.Errorf("decode auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decoded.Error != "" {
			return domain.Identity{}, fmt.Errorf("auth rejected: %s", decoded.Error)
		}
		return domain.Identity{}, fmt.Errorf("auth rejected: status %d", resp.StatusCode)
	}
	if decoded.ParticipantID == "" || decoded.Pseudo == "" {
		return domain.Identity{}, domain.ErrNoIdentity
	}
	return domain.Identity{
		ParticipantID: decoded.ParticipantID,
		Pseudo:        decoded.Pseudo,
		IsAdmin:       decoded.IsAdmin,
	}, nil
}
