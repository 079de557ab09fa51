// Package session is the device-local persistent state of the app: who is
// logged in, their auth token, the draft cart and the last-seen table layout.
// It replaces ambient global access with an explicit handle passed to the
// components that need it, with a load/save/clear lifecycle.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"comanda/models"
)

// Role of the logged-in session.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Identity is the client-side notion of who is using the device. Name is a
// plaintext label, not an authenticated principal; see DESIGN.md.
type Identity struct {
	Role    Role   `json:"role"`
	Name    string `json:"name"`
	TableID *uint  `json:"tableId,omitempty"`
}

const (
	keyIdentity = "identity"
	keyToken    = "token"
	keyLayout   = "layout_cache"
	keyCart     = "cart"
)

// nowFunc is swapped out in tests.
var nowFunc = time.Now

// record is one row of the key-value store.
type record struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (record) TableName() string { return "session_store" }

// Session is a sqlite-backed key-value store, process-wide, living until an
// explicit logout/clear. Safe for concurrent use.
type Session struct {
	mu sync.Mutex
	db *gorm.DB
}

func Open(path string) (*Session, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate session store: %w", err)
	}
	return &Session{db: db}, nil
}

func (s *Session) get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rec record
	err := s.db.First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Value, true, nil
}

func (s *Session) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record{Key: key, Value: value}).Error
}

func (s *Session) delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(&record{}, "key IN ?", keys).Error
}

// Identity returns the stored identity, or ok=false when nobody logged in.
func (s *Session) Identity() (Identity, bool, error) {
	raw, ok, err := s.get(keyIdentity)
	if err != nil || !ok {
		return Identity{}, false, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode identity: %w", err)
	}
	return id, true, nil
}

func (s *Session) SaveIdentity(id Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.set(keyIdentity, string(raw))
}

// Token returns the stored bearer token, empty when absent.
func (s *Session) Token() string {
	raw, _, _ := s.get(keyToken)
	return raw
}

func (s *Session) SaveToken(token string) error {
	return s.set(keyToken, token)
}

// TokenExpired reports whether the stored token carries an exp claim in the
// past. The signature is not verified here; the backend remains the
// authority, this only short-circuits calls that are guaranteed to 401.
func (s *Session) TokenExpired() bool {
	raw := s.Token()
	if raw == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(nowFunc())
}

// ClearToken drops only the auth token, keeping identity and caches. Used on
// 401 so the user is asked to log in again without losing their draft.
func (s *Session) ClearToken() error {
	return s.delete(keyToken)
}

// CacheLayout stores a best-effort copy of the last fetched table layout,
// used only as a fallback display when the network fetch fails.
func (s *Session) CacheLayout(tables []models.Table) error {
	raw, err := json.Marshal(tables)
	if err != nil {
		return err
	}
	return s.set(keyLayout, string(raw))
}

func (s *Session) CachedLayout() ([]models.Table, bool, error) {
	raw, ok, err := s.get(keyLayout)
	if err != nil || !ok {
		return nil, false, err
	}
	var tables []models.Table
	if err := json.Unmarshal([]byte(raw), &tables); err != nil {
		return nil, false, fmt.Errorf("decode cached layout: %w", err)
	}
	return tables, true, nil
}

// SaveCart persists the serialized draft order between runs.
func (s *Session) SaveCart(raw []byte) error {
	return s.set(keyCart, string(raw))
}

func (s *Session) LoadCart() ([]byte, bool, error) {
	raw, ok, err := s.get(keyCart)
	if err != nil || !ok {
		return nil, false, err
	}
	return []byte(raw), true, nil
}

func (s *Session) ClearCart() error {
	return s.delete(keyCart)
}

// Clear wipes the whole session: logout.
func (s *Session) Clear() error {
	return s.delete(keyIdentity, keyToken, keyLayout, keyCart)
}
