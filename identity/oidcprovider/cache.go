package oidcprovider

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/spf13/afero"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// CacheEntry is everything remembered about one signed-in account.
type CacheEntry struct {
	Account      identity.Account `json:"account"`
	Authority    string           `json:"authority"`
	AccessToken  string           `json:"accessToken,omitempty"`
	RefreshToken string           `json:"refreshToken,omitempty"`
	IDToken      string           `json:"idToken,omitempty"`
	Scopes       []string         `json:"scopes,omitempty"`
	ExpiresOn    time.Time        `json:"expiresOn"`
}

// CacheData is the persisted token cache. Order records sign-in order so the
// first account stays first across restarts.
type CacheData struct {
	Entries map[string]CacheEntry `json:"entries"`
	Order   []string              `json:"order"`
}

func newCacheData() *CacheData {
	return &CacheData{Entries: make(map[string]CacheEntry)}
}

func (d *CacheData) put(entry CacheEntry) {
	id := entry.Account.HomeAccountID
	if _, exists := d.Entries[id]; !exists {
		d.Order = append(d.Order, id)
	}
	d.Entries[id] = entry
}

func (d *CacheData) remove(id string) {
	delete(d.Entries, id)
	for i, existing := range d.Order {
		if existing == id {
			d.Order = append(d.Order[:i], d.Order[i+1:]...)
			break
		}
	}
}

func (d *CacheData) accounts() []identity.Account {
	accounts := make([]identity.Account, 0, len(d.Order))
	for _, id := range d.Order {
		if entry, ok := d.Entries[id]; ok {
			accounts = append(accounts, entry.Account)
		}
	}
	return accounts
}

// Cache persists the token cache between processes.
type Cache interface {
	Load(ctx context.Context) (*CacheData, error)
	Save(ctx context.Context, data *CacheData) error
}

// MemoryCache keeps the cache for the lifetime of the process only.
type MemoryCache struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Load(ctx context.Context) (*CacheData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return newCacheData(), nil
	}
	return decodeCache(c.data)
}

func (c *MemoryCache) Save(ctx context.Context, data *CacheData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("[MemoryCache Save] failed to encode cache: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = raw
	return nil
}

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// FileCache stores the cache as a JSON file. With a passphrase the file is sealed
// with secretbox under a scrypt-derived key: salt || nonce || box.
type FileCache struct {
	fs         afero.Fs
	path       string
	passphrase []byte
}

func NewFileCache(fsys afero.Fs, path, passphrase string) *FileCache {
	c := &FileCache{fs: fsys, path: path}
	if passphrase != "" {
		c.passphrase = []byte(passphrase)
	}
	return c
}

func (c *FileCache) Load(ctx context.Context) (*CacheData, error) {
	raw, err := afero.ReadFile(c.fs, c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return newCacheData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("[FileCache Load] failed to read %s: %w", c.path, err)
	}
	if c.passphrase != nil {
		if raw, err = c.open(raw); err != nil {
			return nil, fmt.Errorf("[FileCache Load] failed to decrypt %s: %w", c.path, err)
		}
	}
	return decodeCache(raw)
}

func (c *FileCache) Save(ctx context.Context, data *CacheData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("[FileCache Save] failed to encode cache: %w", err)
	}
	if c.passphrase != nil {
		if raw, err = c.seal(raw); err != nil {
			return fmt.Errorf("[FileCache Save] failed to encrypt cache: %w", err)
		}
	}
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("[FileCache Save] failed to create cache folder: %w", err)
	}
	if err := afero.WriteFile(c.fs, c.path, raw, 0o600); err != nil {
		return fmt.Errorf("[FileCache Save] failed to write %s: %w", c.path, err)
	}
	return nil
}

func (c *FileCache) seal(plain []byte) ([]byte, error) {
	var salt [saltSize]byte
	var nonce [nonceSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	key, err := c.deriveKey(salt[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

func (c *FileCache) open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.New("cache file too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])
	key, err := c.deriveKey(sealed[:saltSize])
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, errors.New("wrong passphrase or corrupted cache")
	}
	return plain, nil
}

func (c *FileCache) deriveKey(salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(c.passphrase, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, err
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}

func decodeCache(raw []byte) (*CacheData, error) {
	data := newCacheData()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to decode token cache: %w", err)
	}
	if data.Entries == nil {
		data.Entries = make(map[string]CacheEntry)
	}
	return data, nil
}
