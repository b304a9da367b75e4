package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultTokenTimeout = 10 * time.Second
	assertionLifetime   = time.Hour
	// expirySkew keeps cached credentials from being handed out right
	// before the gateway would reject them.
	expirySkew = 30 * time.Second

	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// ServiceAccount is the Google service-account key material the
// authorizer signs assertions with.
type ServiceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var account ServiceAccount
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	if account.ProjectID == "" || account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, fmt.Errorf("service account key is missing project_id, client_email or private_key")
	}
	if account.TokenURI == "" {
		account.TokenURI = "https://oauth2.googleapis.com/token"
	}
	return &account, nil
}

// CredentialCache stores issued access tokens across invocations (and
// across processes when backed by redis). A nil cache disables caching.
type CredentialCache interface {
	Get(ctx context.Context, key string) (*Credential, error)
	Set(ctx context.Context, key string, credential *Credential) error
}

// OAuthAuthorizer exchanges a signed service-account assertion for a
// short-lived access token at the Google OAuth2 token endpoint.
type OAuthAuthorizer struct {
	client  *resty.Client
	account *ServiceAccount
	cache   CredentialCache
	logger  *zap.Logger
	now     func() time.Time
}

var _ Authorizer = (*OAuthAuthorizer)(nil)

func NewOAuthAuthorizer(account *ServiceAccount, cache CredentialCache, logger *zap.Logger) (*OAuthAuthorizer, error) {
	client := resty.New()
	client.SetTimeout(defaultTokenTimeout)
	client.SetRetryCount(0)

	return NewOAuthAuthorizerWithClient(account, cache, client, logger)
}

func NewOAuthAuthorizerWithClient(account *ServiceAccount, cache CredentialCache, client *resty.Client, logger *zap.Logger) (*OAuthAuthorizer, error) {
	if account == nil {
		return nil, fmt.Errorf("service account is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTokenTimeout)
	}

	return &OAuthAuthorizer{
		client:  client,
		account: account,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (a *OAuthAuthorizer) Authorize(ctx context.Context) (*Credential, error) {
	if a == nil || a.client == nil || a.account == nil {
		return nil, fmt.Errorf("%w: authorizer is not initialized", ErrUnauthorized)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := a.now()
	cacheKey := "push:credential:" + a.account.ClientEmail

	if a.cache != nil {
		cached, err := a.cache.Get(ctx, cacheKey)
		if err != nil {
			a.logger.Warn("credential cache read failed", zap.Error(err))
		} else if cached.Valid(now.Add(expirySkew)) {
			return cached, nil
		}
	}

	credential, err := a.grant(ctx, now)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, credential); err != nil {
			a.logger.Warn("credential cache write failed", zap.Error(err))
		}
	}

	return credential, nil
}

func (a *OAuthAuthorizer) grant(ctx context.Context, now time.Time) (*Credential, error) {
	assertion, err := a.signAssertion(now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var token tokenResponse
	response, err := a.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&token).
		Post(a.account.TokenURI)
	if err != nil {
		return nil, fmt.Errorf("%w: token request failed: %v", ErrUnauthorized, err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("%w: token endpoint returned status %d: %s",
			ErrUnauthorized, response.StatusCode(), strings.TrimSpace(response.String()))
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("%w: token endpoint returned empty access token", ErrUnauthorized)
	}

	expiresIn := token.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int(assertionLifetime.Seconds())
	}

	return &Credential{
		AccessToken: token.AccessToken,
		ExpiresAt:   now.Add(time.Duration(expiresIn) * time.Second),
	}, nil
}

func (a *OAuthAuthorizer) signAssertion(now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(a.account.PrivateKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse service account private key: %w", err)
	}

	claims := jwt.MapClaims{
		"iss":   a.account.ClientEmail,
		"scope": messagingScope,
		"aud":   a.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return assertion, nil
}
