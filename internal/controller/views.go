package controller

import (
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/store"
)

// Users returns every user in creation order.
func (c *Controller) Users() []model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := c.store.Users()
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Clone())
	}
	return out
}

// Conversations returns every conversation header in creation order.
func (c *Controller) Conversations() []model.ConversationHeader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	convs := c.store.Conversations()
	out := make([]model.ConversationHeader, 0, len(convs))
	for _, h := range convs {
		out = append(out, *h)
	}
	return out
}

func (c *Controller) UserByID(id uuid.UUID) (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if u := c.store.UserByID(id); u != nil {
		return u.Clone(), true
	}
	return model.User{}, false
}

func (c *Controller) UserByName(name string) (model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if u := c.store.UserByName(name); u != nil {
		return u.Clone(), true
	}
	return model.User{}, false
}

func (c *Controller) ConversationByID(id uuid.UUID) (model.ConversationHeader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h := c.store.ConversationByID(id); h != nil {
		return *h, true
	}
	return model.ConversationHeader{}, false
}

func (c *Controller) ConversationByTitle(title string) (model.ConversationHeader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h := c.store.ConversationByTitle(title); h != nil {
		return *h, true
	}
	return model.ConversationHeader{}, false
}

func (c *Controller) MessageByID(id uuid.UUID) (model.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m := c.store.MessageByID(id); m != nil {
		return *m, true
	}
	return model.Message{}, false
}

// Messages returns a conversation's messages from head to tail.
func (c *Controller) Messages(conversationID uuid.UUID) ([]model.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h := c.store.ConversationByID(conversationID)
	if h == nil {
		return nil, &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	chain := c.store.Chain(h)
	out := make([]model.Message, 0, len(chain))
	for _, m := range chain {
		out = append(out, *m)
	}
	return out, nil
}

func (c *Controller) Stats() store.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Stats()
}
