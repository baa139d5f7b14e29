package secrets

import (
	"context"
	"fmt"

	"github.com/dohr-michael/todoglass/internal/storage"
)

// SealedKV encrypts values on Save and decrypts them on Load.
//
// Values written before encryption was turned on are returned unchanged, so
// an existing plaintext blob is picked up and sealed on the next save.
type SealedKV struct {
	inner  storage.KV
	sealer *Sealer
}

// NewSealedKV wraps inner.
func NewSealedKV(inner storage.KV, sealer *Sealer) *SealedKV {
	return &SealedKV{inner: inner, sealer: sealer}
}

// Load implements storage.KV.
func (s *SealedKV) Load(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.inner.Load(ctx, key)
	if err != nil || !ok {
		return raw, ok, err
	}
	if !IsSealed(raw) {
		return raw, true, nil
	}
	plain, err := s.sealer.Open(raw)
	if err != nil {
		return "", false, fmt.Errorf("open %q: %w", key, err)
	}
	return plain, true, nil
}

// Save implements storage.KV.
func (s *SealedKV) Save(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("seal %q: %w", key, err)
	}
	return s.inner.Save(ctx, key, sealed)
}

var _ storage.KV = (*SealedKV)(nil)
