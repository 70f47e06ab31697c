package googleads

import (
	"context"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope is the OAuth scope of the ads platform.
const Scope = "https://www.googleapis.com/auth/adwords"

// Credentials mirrors the google-ads.yaml file.
type Credentials struct {
	DeveloperToken  string `koanf:"developer_token"`
	LoginCustomerID string `koanf:"login_customer_id"`

	// Service account flow.
	JSONKeyFilePath   string `koanf:"json_key_file_path"`
	ImpersonatedEmail string `koanf:"impersonated_email"`

	// Installed application flow.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RefreshToken string `koanf:"refresh_token"`
}

// LoadCredentials reads a google-ads.yaml file.
func LoadCredentials(path string) (Credentials, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Credentials{}, fmt.Errorf("%w: %s: %w", ErrCredentials, path, err)
	}
	var c Credentials
	if err := k.UnmarshalWithConf("", &c, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Credentials{}, fmt.Errorf("%w: %s: %w", ErrCredentials, path, err)
	}
	if c.DeveloperToken == "" {
		return Credentials{}, fmt.Errorf("%w: developer_token is required", ErrCredentials)
	}
	return c, nil
}

// TokenSource picks the OAuth flow configured in c: a service account key,
// a refresh token, or application default credentials, in that order.
func (c Credentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	switch {
	case c.JSONKeyFilePath != "":
		data, err := os.ReadFile(c.JSONKeyFilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
		}
		conf, err := google.JWTConfigFromJSON(data, Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
		}
		conf.Subject = c.ImpersonatedEmail
		return conf.TokenSource(ctx), nil
	case c.RefreshToken != "":
		if c.ClientID == "" || c.ClientSecret == "" {
			return nil, fmt.Errorf("%w: client_id and client_secret are required with refresh_token", ErrCredentials)
		}
		conf := &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{Scope},
		}
		return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil
	default:
		ts, err := google.DefaultTokenSource(ctx, Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
		}
		return ts, nil
	}
}
