package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// tokenFile persists the session token between invocations.
type tokenFile string

func defaultTokenFile() tokenFile {
	home, err := os.UserHomeDir()
	if err != nil {
		return tokenFile(".userctl_token")
	}
	return tokenFile(filepath.Join(home, ".userctl_token"))
}

func (f tokenFile) Load() (string, error) {
	b, err := os.ReadFile(string(f))
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errors.New("empty token file")
	}
	return token, nil
}

func (f tokenFile) Save(token string) error {
	return os.WriteFile(string(f), []byte(token+"\n"), 0o600)
}

func (f tokenFile) Clear() error {
	err := os.Remove(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
