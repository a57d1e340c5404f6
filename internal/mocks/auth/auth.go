package auth

// Package auth contains simple hand-written test doubles for session guard ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cvboard/admin/internal/credentials"
	domainauth "github.com/cvboard/admin/internal/domain/auth"
	"github.com/cvboard/admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ credentials.Jar  = (*MemoryJar)(nil)
	_ ports.Navigator  = (*RecordingNavigator)(nil)
	_ ports.Translator = StaticTranslator(nil)
	_ ports.Metrics    = (*RecordingMetrics)(nil)
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a Clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type jarEntry struct {
	value   string
	expires time.Time
}

// MemoryJar is an in-memory credentials.Jar that evicts entries at their storage expiry,
// the way a browser drops expired cookies.
type MemoryJar struct {
	mu      sync.Mutex
	entries map[string]jarEntry
	now     func() time.Time
}

// NewMemoryJar creates an empty jar. A nil now uses time.Now.
func NewMemoryJar(now func() time.Time) *MemoryJar {
	if now == nil {
		now = time.Now
	}
	return &MemoryJar{entries: make(map[string]jarEntry), now: now}
}

func (j *MemoryJar) Load(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[name]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && !j.now().Before(e.expires) {
		delete(j.entries, name)
		return "", false
	}
	return e.value, true
}

func (j *MemoryJar) Save(name, value string, expires time.Time) {
	j.mu.Lock()
	j.entries[name] = jarEntry{value: value, expires: expires}
	j.mu.Unlock()
}

func (j *MemoryJar) Delete(name string) {
	j.mu.Lock()
	delete(j.entries, name)
	j.mu.Unlock()
}

// Raw returns the stored value and storage expiry without evicting.
func (j *MemoryJar) Raw(name string) (string, time.Time, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[name]
	return e.value, e.expires, ok
}

// RecordingNavigator records every navigation.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

// Paths returns a copy of the recorded navigations.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.paths))
	copy(out, n.paths)
	return out
}

// StaticTranslator resolves keys from a fixed table and echoes unknown keys.
type StaticTranslator map[string]string

func (t StaticTranslator) Translate(_ string, key string) string {
	if v, ok := t[key]; ok {
		return v
	}
	return key
}

// RecordingMetrics sums counters by name.
type RecordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *RecordingMetrics) Count(name string, value int64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]int64)
	}
	m.counts[name] += value
}

// Get returns the accumulated value of a counter.
func (m *RecordingMetrics) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

var signingKey = []byte("test-signing-key")

// IssueToken signs a token the way the backend does, for tests that need real token strings.
func IssueToken(subject int64, role domainauth.Role, issuedAt, expiresAt time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": "user@example.com",
		"role":  string(role),
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	})
	s, err := tok.SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return s
}
