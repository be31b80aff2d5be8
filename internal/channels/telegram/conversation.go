package telegram

import (
	"sync"
)

// State identifies where a chat is in the compose flow.
type State string

const (
	// StateIdle means no compose flow is in progress.
	StateIdle State = "idle"
	// StateAwaitingText means the bot asked for the post body.
	StateAwaitingText State = "awaiting_text"
	// StateAwaitingPlatforms means the platform keyboard is shown.
	StateAwaitingPlatforms State = "awaiting_platforms"
	// StateAwaitingTiming means the post-now/schedule keyboard is shown.
	StateAwaitingTiming State = "awaiting_timing"
	// StateAwaitingScheduleTime means the bot asked for a timestamp.
	StateAwaitingScheduleTime State = "awaiting_schedule_time"
)

// Draft accumulates the post being composed in a chat.
type Draft struct {
	Content string
	Targets []string
}

// Conversation is the per-chat compose flow state.
type Conversation struct {
	State State
	Draft Draft
}

// ConversationManager tracks one conversation per chat.
type ConversationManager struct {
	mu       sync.Mutex
	sessions map[int64]*Conversation
}

// NewConversationManager creates an empty conversation manager.
func NewConversationManager() *ConversationManager {
	return &ConversationManager{
		sessions: make(map[int64]*Conversation),
	}
}

// Get returns the conversation for a chat, creating an idle one if needed.
func (m *ConversationManager) Get(chatID int64) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.sessions[chatID]
	if !ok {
		conv = &Conversation{State: StateIdle}
		m.sessions[chatID] = conv
	}
	return conv
}

// Reset returns the chat to the idle state and clears its draft.
// Returns true if a flow was actually in progress.
func (m *ConversationManager) Reset(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.sessions[chatID]
	active := ok && conv.State != StateIdle
	m.sessions[chatID] = &Conversation{State: StateIdle}
	return active
}
