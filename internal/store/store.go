// Package store holds the in-memory indices of users, conversations and
// messages.
//
// Store is a dumb index: it assumes validated input and performs no locking.
// The controller serializes every access.
package store

import (
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
)

// Store indexes entities by identifier and by their unique text keys.
type Store struct {
	users                map[uuid.UUID]*model.User
	usersByName          map[string]*model.User
	conversations        map[uuid.UUID]*model.ConversationHeader
	conversationsByTitle map[string]*model.ConversationHeader
	messages             map[uuid.UUID]*model.Message

	// insertion order, used by the listing helpers
	userOrder         []uuid.UUID
	conversationOrder []uuid.UUID
	messageOrder      []uuid.UUID
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:                map[uuid.UUID]*model.User{},
		usersByName:          map[string]*model.User{},
		conversations:        map[uuid.UUID]*model.ConversationHeader{},
		conversationsByTitle: map[string]*model.ConversationHeader{},
		messages:             map[uuid.UUID]*model.Message{},
	}
}

// AddUser indexes u by identifier and name.
func (s *Store) AddUser(u *model.User) {
	s.users[u.ID] = u
	s.usersByName[u.Name] = u
	s.userOrder = append(s.userOrder, u.ID)
}

// AddConversation indexes c by identifier and title.
func (s *Store) AddConversation(c *model.ConversationHeader) {
	s.conversations[c.ID] = c
	s.conversationsByTitle[c.Title] = c
	s.conversationOrder = append(s.conversationOrder, c.ID)
}

// AddMessage indexes m by identifier.
func (s *Store) AddMessage(m *model.Message) {
	s.messages[m.ID] = m
	s.messageOrder = append(s.messageOrder, m.ID)
}

// UserByID returns the user with id, or nil.
func (s *Store) UserByID(id uuid.UUID) *model.User {
	return s.users[id]
}

// UserByName returns the user with name, or nil.
func (s *Store) UserByName(name string) *model.User {
	return s.usersByName[name]
}

// ConversationByID returns the conversation with id, or nil.
func (s *Store) ConversationByID(id uuid.UUID) *model.ConversationHeader {
	return s.conversations[id]
}

// ConversationByTitle returns the conversation with title, or nil.
func (s *Store) ConversationByTitle(title string) *model.ConversationHeader {
	return s.conversationsByTitle[title]
}

// MessageByID returns the message with id, or nil.
func (s *Store) MessageByID(id uuid.UUID) *model.Message {
	return s.messages[id]
}

// IsIDInUse reports whether any user, conversation or message has the id.
func (s *Store) IsIDInUse(id uuid.UUID) bool {
	if _, ok := s.users[id]; ok {
		return true
	}
	if _, ok := s.conversations[id]; ok {
		return true
	}
	_, ok := s.messages[id]
	return ok
}

// Users returns all users in insertion order.
func (s *Store) Users() []*model.User {
	out := make([]*model.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out
}

// Conversations returns all conversations in insertion order.
func (s *Store) Conversations() []*model.ConversationHeader {
	out := make([]*model.ConversationHeader, 0, len(s.conversationOrder))
	for _, id := range s.conversationOrder {
		out = append(out, s.conversations[id])
	}
	return out
}

// Messages returns all messages, across conversations, in insertion order.
func (s *Store) Messages() []*model.Message {
	out := make([]*model.Message, 0, len(s.messageOrder))
	for _, id := range s.messageOrder {
		out = append(out, s.messages[id])
	}
	return out
}

// Chain walks a conversation from head to tail following Next links. The walk
// stops at a dangling link or after visiting every known message, so a
// corrupted chain cannot loop forever.
func (s *Store) Chain(c *model.ConversationHeader) []*model.Message {
	var out []*model.Message
	for id := c.Head; id != uuid.Nil && len(out) < len(s.messages); {
		m := s.messages[id]
		if m == nil {
			break
		}
		out = append(out, m)
		id = m.Next
	}
	return out
}

// Stats is a count of indexed entities.
type Stats struct {
	Users         int `json:"users"`
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
}

// Stats counts the indexed entities.
func (s *Store) Stats() Stats {
	return Stats{
		Users:         len(s.users),
		Conversations: len(s.conversations),
		Messages:      len(s.messages),
	}
}
