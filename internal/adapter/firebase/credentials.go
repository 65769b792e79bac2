package firebase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const (
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// Scopes required by the Realtime Database REST API.
	databaseScopes = "https://www.googleapis.com/auth/firebase.database https://www.googleapis.com/auth/userinfo.email"

	// refreshSkew renews tokens this long before Google reports them expired.
	refreshSkew = time.Minute
)

// Credentials is the subset of a Google service-account key file used to mint
// access tokens.
type Credentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`

	key *rsa.PrivateKey
}

// LoadCredentials reads and validates a service-account key file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return ParseCredentials(data)
}

// ParseCredentials decodes a service-account key and its RSA private key.
func ParseCredentials(data []byte) (*Credentials, error) {
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	if c.Type != "" && c.Type != "service_account" {
		return nil, fmt.Errorf("unsupported credentials type %q", c.Type)
	}
	if c.ClientEmail == "" || c.PrivateKey == "" {
		return nil, errors.New("credentials missing client_email or private_key")
	}
	if c.TokenURI == "" {
		c.TokenURI = defaultTokenURI
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(c.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	c.key = key
	return &c, nil
}

// tokenSource exchanges signed JWT assertions for OAuth2 access tokens and
// caches them until shortly before expiry.
type tokenSource struct {
	creds *Credentials
	http  *resty.Client
	clock clockwork.Clock

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(creds *Credentials, timeout time.Duration, clock clockwork.Clock) *tokenSource {
	return &tokenSource{
		creds: creds,
		http:  resty.New().SetTimeout(timeout),
		clock: clock,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a valid access token, refreshing it when needed.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.clock.Now()
	if ts.token != "" && now.Before(ts.expiry) {
		return ts.token, nil
	}

	assertion, err := ts.assertion(now)
	if err != nil {
		return "", err
	}

	resp, err := ts.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		Post(ts.creds.TokenURI)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token endpoint error: status %d: %s", resp.StatusCode(), resp.String())
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("token endpoint returned no access_token")
	}

	ts.token = tr.AccessToken
	ts.expiry = now.Add(time.Duration(tr.ExpiresIn)*time.Second - refreshSkew)
	return ts.token, nil
}

func (ts *tokenSource) assertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   ts.creds.ClientEmail,
		"scope": databaseScopes,
		"aud":   ts.creds.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if ts.creds.PrivateKeyID != "" {
		token.Header["kid"] = ts.creds.PrivateKeyID
	}

	signed, err := token.SignedString(ts.creds.key)
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return signed, nil
}
