package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AuthToken is one context's cached bearer token, as written by `ring login`.
type AuthToken struct {
	Token string `json:"token"`
}

func authPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "auth.json"), nil
}

func initAuth(dir string) error {
	path := filepath.Join(dir, "auth.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.WriteFile(path, []byte("{}"), 0o600)
	}
	return nil
}

// LoadTokens reads the full context-name -> AuthToken map from auth.json,
// returning an empty map if the file does not exist yet.
func LoadTokens() (map[string]AuthToken, error) {
	path, err := authPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]AuthToken{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auth.json: %w", err)
	}

	tokens := map[string]AuthToken{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parsing auth.json: %w", err)
	}
	return tokens, nil
}

// SaveTokens writes the context-name -> AuthToken map back to auth.json.
func SaveTokens(tokens map[string]AuthToken) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encoding auth.json: %w", err)
	}

	path := filepath.Join(dir, "auth.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing auth.json: %w", err)
	}
	return nil
}

// TokenFor returns the cached bearer token for a context name, or an error
// if `ring login` has never been run against it.
func TokenFor(contextName string) (string, error) {
	tokens, err := LoadTokens()
	if err != nil {
		return "", err
	}
	token, ok := tokens[contextName]
	if !ok {
		return "", fmt.Errorf("no cached token for context %q, run `ring login` first", contextName)
	}
	return token.Token, nil
}

// SetToken stores (or replaces) the bearer token for a context name.
func SetToken(contextName, token string) error {
	tokens, err := LoadTokens()
	if err != nil {
		return err
	}
	tokens[contextName] = AuthToken{Token: token}
	return SaveTokens(tokens)
}
