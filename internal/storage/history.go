package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/codebuildervaibhav/lecture-assistant/internal/types"
)

// DefaultMaxSessions bounds history retention; oldest sessions are evicted first
const DefaultMaxSessions = 50

// DefaultVideoName labels sessions created without an explicit video name
const DefaultVideoName = "lecture"

// SessionStore persists chat sessions in a single JSON file. Every mutation is
// a full read-modify-write of the file under an in-process mutex, so two
// concurrent chat submissions cannot lose each other's update.
type SessionStore struct {
	path        string
	maxSessions int
	mu          sync.Mutex
}

// NewSessionStore creates a session store backed by the given file
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{
		path:        path,
		maxSessions: DefaultMaxSessions,
	}
}

// load reads the history file. A missing or corrupt file yields an empty
// history - broken persistence must never block new chat.
func (s *SessionStore) load() types.HistoryFile {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.HistoryFile{}
	}

	var history types.HistoryFile
	if err := json.Unmarshal(data, &history); err != nil {
		return types.HistoryFile{}
	}
	return history
}

// save writes the complete history back to disk
func (s *SessionStore) save(history types.HistoryFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %v", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %v", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save history: %v", err)
	}
	return nil
}

// Append records a question/answer turn. An empty or unknown sessionID starts
// a new session; a matching one grows the existing session. Sessions are kept
// in creation order and truncated to the most recent maxSessions after every
// append. Returns the session the turn landed in.
func (s *SessionStore) Append(sessionID, videoName, question, answer string) (types.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	now := time.Now()
	turn := types.ChatTurn{
		Timestamp: now,
		Question:  question,
		Answer:    answer,
	}

	idx := -1
	if sessionID != "" {
		for i := range history.Sessions {
			if history.Sessions[i].ID == sessionID {
				idx = i
				break
			}
		}
	}

	if idx >= 0 {
		history.Sessions[idx].Chats = append(history.Sessions[idx].Chats, turn)
	} else {
		if videoName == "" {
			videoName = DefaultVideoName
		}
		session := types.ChatSession{
			ID:        s.newSessionID(history, now),
			VideoName: videoName,
			CreatedAt: now,
			Chats:     []types.ChatTurn{turn},
		}
		history.Sessions = append(history.Sessions, session)
		idx = len(history.Sessions) - 1
	}

	// FIFO eviction: keep the most recent maxSessions
	if len(history.Sessions) > s.maxSessions {
		dropped := len(history.Sessions) - s.maxSessions
		history.Sessions = history.Sessions[dropped:]
		idx -= dropped
	}

	if err := s.save(history); err != nil {
		return types.ChatSession{}, err
	}
	if idx < 0 {
		// Over-full file from outside this process: the target session was
		// itself evicted
		return types.ChatSession{}, nil
	}
	return history.Sessions[idx], nil
}

// List returns all sessions, most recently created first
func (s *SessionStore) List() []types.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	sessions := make([]types.ChatSession, len(history.Sessions))
	for i, session := range history.Sessions {
		sessions[len(history.Sessions)-1-i] = session
	}
	return sessions
}

// Get looks up a session by exact id
func (s *SessionStore) Get(sessionID string) (types.ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	for _, session := range history.Sessions {
		if session.ID == sessionID {
			return session, true
		}
	}
	return types.ChatSession{}, false
}

// Delete removes exactly one session by id and persists. Returns false when
// the id is unknown.
func (s *SessionStore) Delete(sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.load()
	for i, session := range history.Sessions {
		if session.ID == sessionID {
			history.Sessions = append(history.Sessions[:i], history.Sessions[i+1:]...)
			return true, s.save(history)
		}
	}
	return false, nil
}

// Clear replaces the entire store with an empty session list
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(types.HistoryFile{Sessions: []types.ChatSession{}})
}

// newSessionID derives a unique id from the creation time, bumping by a
// millisecond while it collides with an existing session
func (s *SessionStore) newSessionID(history types.HistoryFile, now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		taken := false
		for _, session := range history.Sessions {
			if session.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		ms++
	}
}
