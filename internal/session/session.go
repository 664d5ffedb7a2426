package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Astatine-213-Tian/commerce-agent/internal/tools"
	"github.com/google/uuid"
)

// State is a voice session lifecycle state.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateActive       State = "active"
	StateDisconnected State = "disconnected"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the session's conversation history.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is one voice connection's state: an explicit lifecycle machine
// plus transcript accumulation and message history. It is owned by the
// caller and constructed per connection; the search engine underneath stays
// stateless and knows nothing about sessions.
type Session struct {
	id       string
	registry *tools.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	state      State
	messages   []Message
	transcript strings.Builder
}

// New creates an idle session that dispatches tool calls to registry.
func New(registry *tools.Registry, logger *slog.Logger) *Session {
	return &Session{
		id:       uuid.NewString(),
		registry: registry,
		logger:   logger,
		state:    StateIdle,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect moves the session from idle through connecting to active.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("session %s: cannot connect from state %s", s.id, s.state)
	}
	s.state = StateConnecting
	if err := ctx.Err(); err != nil {
		s.state = StateIdle
		return err
	}
	s.state = StateActive
	s.logger.Info("Session connected", "session_id", s.id)
	return nil
}

// Disconnect terminates the session. Disconnecting an already-disconnected
// session is a no-op.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		return
	}
	s.state = StateDisconnected
	s.logger.Info("Session disconnected", "session_id", s.id, "messages", len(s.messages))
}

// AppendTranscript accumulates a partial speech-to-text delta. Only valid
// while active.
func (s *Session) AppendTranscript(delta string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return fmt.Errorf("session %s: cannot append transcript in state %s", s.id, s.state)
	}
	s.transcript.WriteString(delta)
	return nil
}

// CommitTranscript flushes the accumulated transcript into the message
// history under the given role and returns the committed message. An empty
// transcript commits nothing.
func (s *Session) CommitTranscript(role Role) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := s.transcript.String()
	s.transcript.Reset()
	if content == "" {
		return Message{}, false
	}
	msg := Message{Role: role, Content: content, At: time.Now()}
	s.messages = append(s.messages, msg)
	return msg, true
}

// AddMessage appends a complete message to the history.
func (s *Session) AddMessage(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content, At: time.Now()})
}

// Messages returns a copy of the conversation history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// CallTool dispatches a tool invocation from the voice agent. Only valid
// while active; the structured result (success or error payload) is also
// recorded in the message history.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*tools.ExecutionResult, error) {
	if s.State() != StateActive {
		return nil, fmt.Errorf("session %s: cannot call tools in state %s", s.id, s.State())
	}

	result, err := s.registry.Execute(ctx, name, args)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%s: success=%t", name, result.Success)
	if !result.Success {
		summary = fmt.Sprintf("%s: error=%s (%s)", name, result.Error, result.ErrorType)
	}
	s.AddMessage(RoleTool, summary)
	return result, nil
}
