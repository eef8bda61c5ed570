package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// vaultRef is a parsed ${VAULT:path#key} reference.
type vaultRef struct {
	path string
	key  string
}

func parseVaultRef(ref string) (vaultRef, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return vaultRef{}, fmt.Errorf("invalid Vault reference %q: expected format path#key", ref)
	}
	return vaultRef{path: strings.Trim(path, "/"), key: key}, nil
}

func vaultClient() (*api.Client, error) {
	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return nil, fmt.Errorf("VAULT_ADDR environment variable not set")
	}
	token := os.Getenv("VAULT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("VAULT_TOKEN environment variable not set")
	}

	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(token)
	if ns := os.Getenv("VAULT_NAMESPACE"); ns != "" {
		client.SetNamespace(ns)
	}
	return client, nil
}

// resolveVault reads one key of a KV secret. KV v2 paths include the
// data/ segment, e.g. secret/data/schemaforge#db_password.
func resolveVault(ref string) (string, error) {
	r, err := parseVaultRef(ref)
	if err != nil {
		return "", err
	}
	client, err := vaultClient()
	if err != nil {
		return "", err
	}

	secret, err := client.Logical().Read(r.path)
	if err != nil {
		return "", fmt.Errorf("reading Vault secret at %s: %w", r.path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at %s", r.path)
	}

	// KV v2 nests the payload under "data".
	data := secret.Data
	if inner, ok := data["data"].(map[string]interface{}); ok {
		data = inner
	}

	val, ok := data[r.key]
	if !ok {
		return "", fmt.Errorf("key %q not found in Vault secret at %s", r.key, r.path)
	}
	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("Vault secret value for key %q is not a string", r.key)
	}
	return str, nil
}
