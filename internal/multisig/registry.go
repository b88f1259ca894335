package multisig

import (
	"fmt"
	"os"

	"github.com/clad-sovereign/clad-dashboard/internal/pkg/validator"

	"gopkg.in/yaml.v2"
)

// RegistryEntry is the static local configuration for one multisig account.
// Chain storage keeps only deposit/approval bookkeeping for a multisig, so
// threshold and the named signatory set must come from here. Read-only at
// runtime; an unregistered account degrades gracefully (its approvals are
// still shown, just without names or threshold context).
type RegistryEntry struct {
	Account     string      `yaml:"account" validate:"required"`
	Name        string      `yaml:"name"`
	Threshold   uint16      `yaml:"threshold" validate:"required,gt=0"`
	Signatories []Signatory `yaml:"signatories" validate:"required,min=1,dive"`
}

// Registry maps multisig account addresses to their known configuration.
type Registry struct {
	entries map[string]RegistryEntry
}

// NewRegistry builds a registry from the given entries. Each entry is
// validated; duplicate accounts are rejected.
func NewRegistry(entries ...RegistryEntry) (*Registry, error) {
	byAccount := make(map[string]RegistryEntry, len(entries))
	for _, entry := range entries {
		if err := validator.Validate(entry); err != nil {
			return nil, fmt.Errorf("multisig registry entry %q: %w", entry.Account, err)
		}
		if _, dup := byAccount[entry.Account]; dup {
			return nil, fmt.Errorf("multisig registry lists account %q twice", entry.Account)
		}
		byAccount[entry.Account] = entry
	}

	return &Registry{entries: byAccount}, nil
}

// LoadRegistry reads a YAML registry file: a list of entries, each with
// account, name, threshold, and signatories.
func LoadRegistry(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading multisig registry: %w", err)
	}

	var entries []RegistryEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing multisig registry: %w", err)
	}

	return NewRegistry(entries...)
}

// EmptyRegistry returns a registry with no entries.
func EmptyRegistry() *Registry {
	return &Registry{entries: map[string]RegistryEntry{}}
}

// Lookup returns the configuration for a multisig account, if registered.
func (r *Registry) Lookup(account string) (RegistryEntry, bool) {
	entry, ok := r.entries[account]
	return entry, ok
}

// Len returns the number of registered accounts.
func (r *Registry) Len() int {
	return len(r.entries)
}
