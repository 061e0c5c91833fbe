package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/and161185/homeservices/internal/crypto/clientcrypto"
	"github.com/and161185/homeservices/internal/model"
)

const (
	fileName = "session.json"
	appDir   = "homeservices"
)

var sealAAD = []byte("homeservices.session.v1")

// DefaultDir returns $XDG_CONFIG_HOME/homeservices or ~/.config/homeservices.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}

// sessionFile is the on-disk document. Either the plain fields or Sealed is set.
type sessionFile struct {
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`

	Salt   []byte `json:"salt,omitempty"`
	Sealed []byte `json:"sealed,omitempty"`
}

// FileStore keeps the session in a single JSON file, written atomically.
type FileStore struct {
	dir        string
	passphrase []byte
	mu         sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore stores the session under dir (DefaultDir when empty). A non-empty
// passphrase seals the document with an Argon2id derived key.
func NewFileStore(dir, passphrase string) *FileStore {
	if dir == "" {
		dir = DefaultDir()
	}
	fs := &FileStore{dir: dir}
	if passphrase != "" {
		fs.passphrase = []byte(passphrase)
	}
	return fs
}

// Path returns the session file location.
func (f *FileStore) Path() string { return filepath.Join(f.dir, fileName) }

func (f *FileStore) Get(context.Context) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return model.Session{}, nil
	}
	if err != nil {
		return model.Session{}, err
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return model.Session{}, fmt.Errorf("decode session file: %w", err)
	}
	if len(sf.Sealed) > 0 {
		if f.passphrase == nil {
			return model.Session{}, errors.New("session file is sealed: passphrase required")
		}
		key := clientcrypto.DeriveKey(f.passphrase, sf.Salt)
		pt, err := clientcrypto.Open(key, sealAAD, sf.Sealed)
		if err != nil {
			return model.Session{}, err
		}
		var s model.Session
		if err := json.Unmarshal(pt, &s); err != nil {
			return model.Session{}, fmt.Errorf("decode sealed session: %w", err)
		}
		return s, nil
	}
	return model.Session{AccessToken: sf.AccessToken, RefreshToken: sf.RefreshToken, User: sf.User}, nil
}

func (f *FileStore) Set(_ context.Context, s model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sf := sessionFile{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, User: s.User}
	if f.passphrase != nil {
		salt, err := clientcrypto.Rand(clientcrypto.SaltLen)
		if err != nil {
			return err
		}
		pt, err := json.Marshal(s)
		if err != nil {
			return err
		}
		sealed, err := clientcrypto.Seal(clientcrypto.DeriveKey(f.passphrase, salt), sealAAD, pt)
		if err != nil {
			return err
		}
		sf = sessionFile{Salt: salt, Sealed: sealed}
	}
	return f.write(sf)
}

func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.Path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// write replaces the file via temp file + rename so readers never see a partial group.
func (f *FileStore) write(sf sessionFile) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, fileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path())
}
