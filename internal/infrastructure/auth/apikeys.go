package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/orris-inc/lnsubs/internal/shared/config"
)

// Principal is the caller an API key stands for.
type Principal struct {
	Wallet string
	Role   string
}

// KeyStore maps configured API keys to principals. Keys are held as SHA-256
// digests and compared in constant time.
type KeyStore struct {
	entries []keyEntry
}

type keyEntry struct {
	digest    [32]byte
	principal Principal
}

func NewKeyStore(keys []config.APIKeyConfig) (*KeyStore, error) {
	store := &KeyStore{entries: make([]keyEntry, 0, len(keys))}
	for i, k := range keys {
		if k.Key == "" || k.Wallet == "" {
			return nil, fmt.Errorf("api key %d needs both key and wallet", i)
		}
		if k.Role != RoleAdmin && k.Role != RoleInvoice {
			return nil, fmt.Errorf("api key %d has unknown role %q", i, k.Role)
		}
		store.entries = append(store.entries, keyEntry{
			digest:    sha256.Sum256([]byte(k.Key)),
			principal: Principal{Wallet: k.Wallet, Role: k.Role},
		})
	}
	return store, nil
}

// Lookup returns the principal for key. Every entry is compared so the time
// taken does not reveal which key matched.
func (s *KeyStore) Lookup(key string) (Principal, bool) {
	if key == "" {
		return Principal{}, false
	}
	digest := sha256.Sum256([]byte(key))

	var (
		found Principal
		ok    bool
	)
	for _, e := range s.entries {
		if subtle.ConstantTimeCompare(digest[:], e.digest[:]) == 1 && !ok {
			found, ok = e.principal, true
		}
	}
	return found, ok
}
