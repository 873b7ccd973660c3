package service

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medconnect/portal-gateway/pkg/model"
)

// ErrConversationNotFound is returned for unknown or expired conversation IDs.
var ErrConversationNotFound = errors.New("conversation not found")

// ChatService owns the live booking conversations, keyed by ID. Conversations
// idle past the TTL are evicted lazily; an evicted conversation behaves like
// one the patient navigated away from, so late backend responses are dropped.
type ChatService struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation

	backend  AppointmentBackend
	analyzer *OfflineAnalyzer
	ttl      time.Duration
	logger   *zap.Logger
}

// NewChatService creates the conversation registry. analyzer may be nil to
// disable degraded-mode analysis.
func NewChatService(b AppointmentBackend, analyzer *OfflineAnalyzer, ttl time.Duration, logger *zap.Logger) *ChatService {
	return &ChatService{
		conversations: make(map[string]*Conversation),
		backend:       b,
		analyzer:      analyzer,
		ttl:           ttl,
		logger:        logger,
	}
}

// Start opens a new conversation for the patient. The greeting turn is already
// present in the returned conversation.
func (s *ChatService) Start(patient model.Identity, token string) *Conversation {
	conv := newConversation(patient, token, s.backend, s.analyzer, s.logger)

	s.mu.Lock()
	s.conversations[conv.ID()] = conv
	s.mu.Unlock()

	s.logger.Info("conversation started",
		zap.String("conversation_id", conv.ID()),
		zap.String("patient_id", patient.ID),
	)

	return conv
}

// Get returns a live conversation, evicting it first if it has idled out.
func (s *ChatService) Get(id string) (*Conversation, error) {
	s.mu.RLock()
	conv, ok := s.conversations[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrConversationNotFound
	}

	if conv.expired(s.ttl) {
		s.End(id)
		return nil, ErrConversationNotFound
	}

	return conv, nil
}

// End closes a conversation, typically because the patient navigated away.
// Safe to call for unknown IDs.
func (s *ChatService) End(id string) {
	s.mu.Lock()
	conv, ok := s.conversations[id]
	delete(s.conversations, id)
	s.mu.Unlock()

	if ok {
		conv.end()
		s.logger.Info("conversation ended", zap.String("conversation_id", id))
	}
}
