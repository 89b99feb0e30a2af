// Package codexconfig loads the optional on-disk Codex JSON config file
// pointed to by CODING_AGENT_CODEX_CONFIG_PATH: access token, model
// cycling list, and an optional request timeout.
package codexconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

const accountIDClaim = "https://api.openai.com/auth.chatgpt_account_id"

// Config is the strictly-decoded shape of the Codex config file.
type Config struct {
	AccessToken string   `json:"access_token"`
	Models      []string `json:"models"`
	TimeoutSec  float64  `json:"timeout_sec"`

	// AccountID is derived from AccessToken's claims during Load, not read
	// directly from the file.
	AccountID string `json:"-"`
}

// Load reads path, expands environment variables in its contents, and
// strict-decodes it into a Config. Unknown top-level fields are a hard
// error, matching the donor loader's KnownFields(true) behavior adapted to
// JSON via DisallowUnknownFields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codexconfig: read %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	decoder := json.NewDecoder(bytes.NewReader([]byte(expanded)))
	decoder.DisallowUnknownFields()
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("codexconfig: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	accountID, err := extractAccountID(cfg.AccessToken)
	if err != nil {
		return nil, err
	}
	cfg.AccountID = accountID

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("codexconfig: access_token is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("codexconfig: models must be a non-empty list")
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("codexconfig: timeout_sec must be > 0")
	}
	return nil
}

// extractAccountID parses the access token's claims without verifying its
// signature — the agent is the resource owner reading its own token, not an
// authority validating someone else's — and returns the chatgpt_account_id
// claim required by the Codex backend.
func extractAccountID(accessToken string) (string, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return "", fmt.Errorf("codexconfig: access_token is not a parseable JWT: %w", err)
	}

	raw, ok := claims[accountIDClaim]
	if !ok {
		return "", fmt.Errorf("codexconfig: access_token is missing claim %q", accountIDClaim)
	}
	accountID, ok := raw.(string)
	if !ok || accountID == "" {
		return "", fmt.Errorf("codexconfig: claim %q is not a non-empty string", accountIDClaim)
	}
	return accountID, nil
}
