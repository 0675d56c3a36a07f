package http

import (
	"container/list"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fecviz/internal/fec"
)

const sessionCookie = "fecviz_session"

// session holds everything one operator accumulates between requests: the
// ingested dataset and the artifacts of the latest process invocation.
// Nothing here survives a server restart.
type session struct {
	mu       sync.Mutex
	dataset  *fec.Dataset
	report   *fec.Report
	chartPNG []byte
	workbook []byte
}

// sessionStore is an in-memory TTL store with LRU eviction: recently
// touched sessions stay alive, the oldest one is dropped when the store
// is full. Expiry is refreshed on access so an active operator is never
// cut off mid-session.
type sessionStore struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	stop     chan struct{}
	stopOnce sync.Once
}

type sessionItem struct {
	id        string
	sess      *session
	expiresAt time.Time
}

func newSessionStore(maxSize int, ttl time.Duration) *sessionStore {
	st := &sessionStore{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		stop:    make(chan struct{}),
	}
	go st.cleanupLoop()
	return st
}

// get returns the live session for id, refreshing its expiry.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	elem, exists := st.items[id]
	if !exists {
		return nil, false
	}
	item := elem.Value.(*sessionItem)
	if time.Now().After(item.expiresAt) {
		st.removeElement(elem)
		return nil, false
	}
	item.expiresAt = time.Now().Add(st.ttl)
	st.lru.MoveToFront(elem)
	return item.sess, true
}

// create registers a fresh session under id, evicting the least recently
// used one if the store is full.
func (st *sessionStore) create(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess := &session{}
	item := &sessionItem{id: id, sess: sess, expiresAt: time.Now().Add(st.ttl)}
	if elem, exists := st.items[id]; exists {
		elem.Value = item
		st.lru.MoveToFront(elem)
		return sess
	}
	st.items[id] = st.lru.PushFront(item)
	if st.lru.Len() > st.maxSize {
		if oldest := st.lru.Back(); oldest != nil {
			st.removeElement(oldest)
		}
	}
	return sess
}

func (st *sessionStore) removeElement(elem *list.Element) {
	item := elem.Value.(*sessionItem)
	delete(st.items, item.id)
	st.lru.Remove(elem)
}

func (st *sessionStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.cleanExpired()
		case <-st.stop:
			return
		}
	}
}

func (st *sessionStore) cleanExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := st.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*sessionItem).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		st.removeElement(elem)
	}
	return len(toRemove)
}

func (st *sessionStore) close() {
	st.stopOnce.Do(func() { close(st.stop) })
}

// sessionFor returns the request's session, minting a cookie and a fresh
// session when the request carries none (or a stale id).
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		if sess, ok := s.sessions.get(c.Value); ok {
			return sess
		}
	}
	id := newSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.create(id)
}

func newSessionID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("sess_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
