// Package vault stores form answers encrypted at rest. Answers are keyed by
// normalized question key and survive restarts; the whole set is sealed with
// a passphrase-derived key so a leaked file exposes nothing.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/scrypt"

	"jobpilot/models"
)

var fileMagic = []byte("JPV1")

const (
	saltLen  = 16
	nonceLen = 12
	keyLen   = 32

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Vault is a passphrase-sealed answer store backed by a single file.
type Vault struct {
	path       string
	passphrase []byte

	mu      sync.Mutex
	entries map[string]models.AnswerEntry
}

// Open loads the vault at path, creating an empty one if the file does not
// exist. A wrong passphrase fails here, not on later reads.
func Open(path, passphrase string) (*Vault, error) {
	v := &Vault{
		path:       path,
		passphrase: []byte(passphrase),
		entries:    map[string]models.AnswerEntry{},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vault file: %w", err)
	}

	if err := v.unseal(raw); err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup returns the saved answer for a normalized question key.
func (v *Vault) Lookup(key string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	entry, ok := v.entries[key]
	return entry.Answer, ok
}

// Save upserts an answer and persists the vault.
func (v *Vault) Save(entry models.AnswerEntry) error {
	if entry.QuestionKey == "" {
		return fmt.Errorf("answer entry has no question key")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[entry.QuestionKey] = entry
	return v.persistLocked()
}

// Delete removes an answer and persists the vault. Deleting a missing key
// is a no-op.
func (v *Vault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[key]; !ok {
		return nil
	}
	delete(v.entries, key)
	return v.persistLocked()
}

// Entries returns all saved answers sorted by question key.
func (v *Vault) Entries() []models.AnswerEntry {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]models.AnswerEntry, 0, len(v.entries))
	for _, entry := range v.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionKey < out[j].QuestionKey })
	return out
}

func (v *Vault) deriveKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key(v.passphrase, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving vault key: %w", err)
	}
	return key, nil
}

func (v *Vault) unseal(raw []byte) error {
	if len(raw) < len(fileMagic)+saltLen+nonceLen || string(raw[:len(fileMagic)]) != string(fileMagic) {
		return fmt.Errorf("vault file is malformed")
	}
	raw = raw[len(fileMagic):]

	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+nonceLen]
	sealed := raw[saltLen+nonceLen:]

	key, err := v.deriveKey(salt)
	if err != nil {
		return err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	plain, err := gcm.Open(nil, nonce, sealed, fileMagic)
	if err != nil {
		return fmt.Errorf("unsealing vault: wrong passphrase or corrupt file")
	}

	entries := map[string]models.AnswerEntry{}
	if err := json.Unmarshal(plain, &entries); err != nil {
		return fmt.Errorf("decoding vault contents: %w", err)
	}
	v.entries = entries
	return nil
}

func (v *Vault) persistLocked() error {
	plain, err := json.Marshal(v.entries)
	if err != nil {
		return fmt.Errorf("encoding vault contents: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating vault salt: %w", err)
	}
	key, err := v.deriveKey(salt)
	if err != nil {
		return err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return err
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating vault nonce: %w", err)
	}

	out := make([]byte, 0, len(fileMagic)+saltLen+nonceLen+len(plain)+gcm.Overhead())
	out = append(out, fileMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plain, fileMagic)

	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("creating vault directory: %w", err)
	}

	// Write-then-rename keeps a crash from truncating the vault.
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing vault file: %w", err)
	}
	if err := os.Rename(tmp, v.path); err != nil {
		return fmt.Errorf("replacing vault file: %w", err)
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing vault cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing vault cipher: %w", err)
	}
	return gcm, nil
}
