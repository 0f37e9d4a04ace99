// Package controller is the single serialization point for every change to
// chat state. Each mutation is validated, applied to the store and, unless it
// is being replayed, submitted to the journal while the write lock is held.
package controller

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/ident"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/journal"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
)

// Journal receives records for durable storage. *journal.Writer satisfies it.
type Journal interface {
	Submit(rec journal.Record)
}

type discardJournal struct{}

func (discardJournal) Submit(journal.Record) {}

// mode tells the mutation functions whether the change originates from a
// live request or from the journal.
type mode int

const (
	persist mode = iota
	replay
)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the time source used for creation times and watermarks.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller owns all chat state. Every mutation runs under its write lock
// and is journaled in the order it became visible.
type Controller struct {
	mu      sync.RWMutex
	store   *store.Store
	ids     *ident.Generator
	journal Journal
	now     func() time.Time
}

// New returns a controller over s. A nil journal discards records.
func New(s *store.Store, ids *ident.Generator, j Journal, opts ...Option) *Controller {
	if j == nil {
		j = discardJournal{}
	}
	c := &Controller{
		store:   s,
		ids:     ids,
		journal: j,
		now:     func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) record(m mode, rec journal.Record) {
	if m == persist {
		c.journal.Submit(rec)
	}
}

// fits rejects a record the journal could not read back.
func fits(field string, rec journal.Record) error {
	if err := journal.CheckSize(rec); err != nil {
		return &ValidationError{Field: field, Message: fmt.Sprintf("too long, records are limited to %d bytes", journal.MaxPayloadSize)}
	}
	return nil
}

func (c *Controller) newID() uuid.UUID {
	return c.ids.Generate(c.store.IsIDInUse)
}

// NewUser registers a user with a unique, non-empty name.
func (c *Controller) NewUser(name string) (u model.User, err error) {
	defer func(start time.Time) { security.ObserveOperation("new_user", start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	created, err := c.addUser(persist, c.newID(), name, c.now())
	if err != nil {
		return model.User{}, err
	}
	return created.Clone(), nil
}

func (c *Controller) addUser(m mode, id uuid.UUID, name string, createdAt time.Time) (*model.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	rec := journal.UserCreated{ID: id, Name: name, CreatedAt: createdAt}
	if err := fits("name", rec); err != nil {
		return nil, err
	}
	if c.store.UserByName(name) != nil {
		return nil, &ConflictError{Message: fmt.Sprintf("user name %q is taken", name), Code: "duplicate_name"}
	}
	if c.store.IsIDInUse(id) {
		return nil, &ConflictError{Message: fmt.Sprintf("identifier %s is in use", id), Code: "duplicate_id"}
	}

	u := model.NewUser(id, name, createdAt)
	c.store.AddUser(u)
	c.record(m, rec)
	if m == persist {
		log.Info("User added", "id", id, "name", name)
	}
	return u, nil
}

// NewConversation creates a conversation owned by ownerID, who becomes its
// creator.
func (c *Controller) NewConversation(title string, ownerID uuid.UUID) (h model.ConversationHeader, err error) {
	defer func(start time.Time) { security.ObserveOperation("new_conversation", start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	created, err := c.addConversation(persist, c.newID(), ownerID, c.now(), title)
	if err != nil {
		return model.ConversationHeader{}, err
	}
	return *created, nil
}

func (c *Controller) addConversation(m mode, id, ownerID uuid.UUID, createdAt time.Time, title string) (*model.ConversationHeader, error) {
	owner := c.store.UserByID(ownerID)
	if owner == nil {
		return nil, &NotFoundError{Resource: "user", ID: ownerID.String()}
	}
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title", Message: "must not be empty"}
	}
	rec := journal.ConversationCreated{ID: id, OwnerID: ownerID, CreatedAt: createdAt, Title: title}
	if err := fits("title", rec); err != nil {
		return nil, err
	}
	if c.store.ConversationByTitle(title) != nil {
		return nil, &ConflictError{Message: fmt.Sprintf("conversation title %q is taken", title), Code: "duplicate_title"}
	}
	if c.store.IsIDInUse(id) {
		return nil, &ConflictError{Message: fmt.Sprintf("identifier %s is in use", id), Code: "duplicate_id"}
	}

	h := &model.ConversationHeader{ID: id, Title: title, OwnerID: ownerID, CreatedAt: createdAt}
	c.store.AddConversation(h)
	c.record(m, rec)
	// The creator grant is implied by the conversation record.
	owner.SetAccess(id, model.AccessCreator)
	if m == persist {
		log.Info("Conversation added", "id", id, "title", title, "owner", ownerID)
	}
	return h, nil
}

// NewMessage appends a message to the end of a conversation.
func (c *Controller) NewMessage(authorID, conversationID uuid.UUID, body string) (msg model.Message, err error) {
	defer func(start time.Time) { security.ObserveOperation("new_message", start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	created, err := c.addMessage(persist, c.newID(), authorID, conversationID, c.now(), body)
	if err != nil {
		return model.Message{}, err
	}
	return *created, nil
}

func (c *Controller) addMessage(m mode, id, authorID, conversationID uuid.UUID, createdAt time.Time, body string) (*model.Message, error) {
	if c.store.UserByID(authorID) == nil {
		return nil, &NotFoundError{Resource: "user", ID: authorID.String()}
	}
	conv := c.store.ConversationByID(conversationID)
	if conv == nil {
		return nil, &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	rec := journal.MessageCreated{ID: id, AuthorID: authorID, ConversationID: conversationID, CreatedAt: createdAt, Body: body}
	if err := fits("body", rec); err != nil {
		return nil, err
	}
	if c.store.IsIDInUse(id) {
		return nil, &ConflictError{Message: fmt.Sprintf("identifier %s is in use", id), Code: "duplicate_id"}
	}

	msg := &model.Message{ID: id, AuthorID: authorID, ConversationID: conversationID, CreatedAt: createdAt, Body: body}
	c.store.AddMessage(msg)
	if conv.IsEmpty() {
		conv.Head = id
	} else if tail := c.store.MessageByID(conv.Tail); tail != nil {
		tail.Next = id
	}
	conv.Tail = id

	c.record(m, rec)
	if m == persist {
		log.Info("Message added", "id", id, "conversation", conversationID, "author", authorID)
	}
	return msg, nil
}

// Apply re-applies a journal record without journaling it again.
func (c *Controller) Apply(rec journal.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch r := rec.(type) {
	case journal.UserCreated:
		_, err = c.addUser(replay, r.ID, r.Name, r.CreatedAt)
	case journal.ConversationCreated:
		_, err = c.addConversation(replay, r.ID, r.OwnerID, r.CreatedAt, r.Title)
	case journal.MessageCreated:
		_, err = c.addMessage(replay, r.ID, r.AuthorID, r.ConversationID, r.CreatedAt, r.Body)
	case journal.AccessChanged:
		err = c.applyAccess(r)
	default:
		err = fmt.Errorf("unsupported record kind %q", rec.Kind())
	}
	return err
}

// Replay rebuilds state from the journal at path. It must run before the
// journal writer starts.
func (c *Controller) Replay(path string) (*journal.ReplayStats, error) {
	stats, err := journal.Replay(path, c.Apply)
	if err != nil {
		return stats, fmt.Errorf("replay journal: %w", err)
	}
	st := c.Stats()
	log.Info("State restored", "users", st.Users, "conversations", st.Conversations, "messages", st.Messages)
	return stats, nil
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
