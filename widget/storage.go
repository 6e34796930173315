package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Storage persists the per-installation visitor identity and the last
// conversation identifier. The file implementation is the desktop analogue of
// browser local storage; tests plug in MemoryStorage.
type Storage interface {
	VisitorID() (string, error)
	SaveConversation(conversationID string) error
	Conversation() (string, error)
}

type storageState struct {
	VisitorID      string `json:"visitor_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage places the state file under the user config directory.
func NewFileStorage() (*FileStorage, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}
	return NewFileStorageAt(filepath.Join(dir, "clai-chat", "widget.json")), nil
}

func NewFileStorageAt(path string) *FileStorage {
	return &FileStorage{path: path}
}

// VisitorID returns the stored identifier, generating and persisting one on
// first call. The identifier never changes afterwards unless the state file
// is deleted.
func (s *FileStorage) VisitorID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", err
	}
	if state.VisitorID != "" {
		return state.VisitorID, nil
	}

	state.VisitorID = uuid.NewString()
	if err := s.save(state); err != nil {
		return "", err
	}
	return state.VisitorID, nil
}

func (s *FileStorage) SaveConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state.ConversationID = conversationID
	return s.save(state)
}

func (s *FileStorage) Conversation() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", err
	}
	return state.ConversationID, nil
}

func (s *FileStorage) load() (storageState, error) {
	var state storageState

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read widget state: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt state file starts the visitor over rather than
		// making the widget unusable.
		return storageState{}, nil
	}
	return state, nil
}

func (s *FileStorage) save(state storageState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create widget state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode widget state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write widget state: %w", err)
	}
	return nil
}

type MemoryStorage struct {
	mu    sync.Mutex
	state storageState
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) VisitorID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.VisitorID == "" {
		s.state.VisitorID = uuid.NewString()
	}
	return s.state.VisitorID, nil
}

func (s *MemoryStorage) SaveConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ConversationID = conversationID
	return nil
}

func (s *MemoryStorage) Conversation() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.ConversationID, nil
}
