// Package history keeps the widget's conversation transcript: an
// in-memory ordered message list mirrored to a durable snapshot capped
// at the most recent entries.
package history

import (
	"encoding/json"
	"time"

	"github.com/fbmoulin/2avaracivel-cariacica-website/pkg/logger"
)

// Sender identifies who produced a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// MessageType distinguishes normal replies from error bubbles
type MessageType string

const (
	TypeNormal MessageType = "normal"
	TypeError  MessageType = "error"
)

// ChatMessage is one transcript entry. Messages are never mutated after
// creation.
type ChatMessage struct {
	Text      string      `json:"text"`
	Sender    Sender      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
	Type      MessageType `json:"type"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(text string, sender Sender, msgType MessageType) ChatMessage {
	return ChatMessage{
		Text:      text,
		Sender:    sender,
		Timestamp: time.Now(),
		Type:      msgType,
	}
}

// snapshotVersion matches the persisted envelope format of the widget
const snapshotVersion = "2.0"

// envelope is the persisted snapshot format
type envelope struct {
	Messages  []ChatMessage `json:"messages"`
	Timestamp int64         `json:"timestamp"`
	Version   string        `json:"version"`
}

// Options configures a Store
type Options struct {
	// Cap bounds the persisted snapshot size (in-memory may exceed it
	// transiently during a session)
	Cap int
	// TTL invalidates snapshots older than this on restore; zero keeps
	// snapshots forever
	TTL time.Duration
}

// DefaultOptions returns the widget defaults
func DefaultOptions() Options {
	return Options{
		Cap: 50,
		TTL: 24 * time.Hour,
	}
}

// Store is the ordered in-memory message list with snapshot persistence.
// It is owned by a single widget controller and is not safe for
// concurrent use by multiple controllers.
type Store struct {
	messages []ChatMessage
	snap     Snapshot
	opts     Options
	log      *logger.Logger
}

// NewStore creates a store backed by the given snapshot. A nil snapshot
// disables persistence.
func NewStore(snap Snapshot, opts Options, log *logger.Logger) *Store {
	if opts.Cap <= 0 {
		opts.Cap = DefaultOptions().Cap
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Store{
		snap: snap,
		opts: opts,
		log:  log.WithComponent("history"),
	}
}

// Append adds a message to the end of the transcript
func (s *Store) Append(msg ChatMessage) {
	s.messages = append(s.messages, msg)
}

// Recent returns up to the last n messages in original order
func (s *Store) Recent(n int) []ChatMessage {
	if n <= 0 || len(s.messages) == 0 {
		return nil
	}
	if n > len(s.messages) {
		n = len(s.messages)
	}
	out := make([]ChatMessage, n)
	copy(out, s.messages[len(s.messages)-n:])
	return out
}

// Len returns the number of messages currently held in memory
func (s *Store) Len() int {
	return len(s.messages)
}

// Clear drops the transcript and deletes the snapshot
func (s *Store) Clear() {
	s.messages = nil
	if s.snap != nil {
		if err := s.snap.Delete(); err != nil {
			s.log.Warn("could not delete history snapshot", "error", err.Error())
		}
	}
}

// Persist writes the last Cap messages to the snapshot. Failures are
// logged, never fatal; losing history must not break the chat.
func (s *Store) Persist() {
	if s.snap == nil {
		return
	}

	env := envelope{
		Messages:  s.Recent(s.opts.Cap),
		Timestamp: time.Now().UnixMilli(),
		Version:   snapshotVersion,
	}

	data, err := json.Marshal(env)
	if err != nil {
		s.log.Warn("could not serialize chat history", "error", err.Error())
		return
	}

	if err := s.snap.Save(data); err != nil {
		s.log.Warn("could not save chat history", "error", err.Error())
	}
}

// Restore loads the snapshot into memory. A corrupt, missing, or expired
// snapshot leaves the store empty; Restore never fails the caller.
func (s *Store) Restore() {
	if s.snap == nil {
		return
	}

	data, err := s.snap.Load()
	if err != nil || len(data) == 0 {
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn("could not load chat history", "error", err.Error())
		return
	}

	if s.opts.TTL > 0 {
		age := time.Since(time.UnixMilli(env.Timestamp))
		if age > s.opts.TTL {
			s.log.Debug("discarding expired chat history", "age", age.String())
			return
		}
	}

	s.messages = env.Messages
}
