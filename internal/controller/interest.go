package controller

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// Interests live only in memory and start over on restart.

func (c *Controller) requester(id uuid.UUID) (*model.User, error) {
	u := c.store.UserByID(id)
	if u == nil {
		return nil, &NotFoundError{Resource: "user", ID: id.String()}
	}
	return u, nil
}

func (c *Controller) userTarget(name string) (uuid.UUID, error) {
	u := c.store.UserByName(name)
	if u == nil {
		return uuid.Nil, &NotFoundError{Resource: "user", ID: name}
	}
	return u.ID, nil
}

func (c *Controller) conversationTarget(title string) (uuid.UUID, error) {
	h := c.store.ConversationByTitle(title)
	if h == nil {
		return uuid.Nil, &NotFoundError{Resource: "conversation", ID: title}
	}
	return h.ID, nil
}

func (c *Controller) addInterest(op string, requesterID uuid.UUID, key string, resolve func(string) (uuid.UUID, error)) (err error) {
	defer func(start time.Time) { security.ObserveOperation(op, start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	u, err := c.requester(requesterID)
	if err != nil {
		return err
	}
	target, err := resolve(key)
	if err != nil {
		return err
	}
	if !u.AddInterest(target, c.now()) {
		return &ConflictError{Message: "already an interest: " + key, Code: "duplicate_interest"}
	}
	log.Debug("Interest added", "user", u.ID, "target", target)
	return nil
}

func (c *Controller) removeInterest(op string, requesterID uuid.UUID, key string, resolve func(string) (uuid.UUID, error)) (err error) {
	defer func(start time.Time) { security.ObserveOperation(op, start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	u, err := c.requester(requesterID)
	if err != nil {
		return err
	}
	target, err := resolve(key)
	if err != nil {
		return err
	}
	if !u.RemoveInterest(target) {
		return &NotFoundError{Resource: "interest", ID: key}
	}
	log.Debug("Interest removed", "user", u.ID, "target", target)
	return nil
}

// AddUserInterest starts tracking the named user for the requester.
func (c *Controller) AddUserInterest(requesterID uuid.UUID, name string) error {
	return c.addInterest("add_user_interest", requesterID, name, c.userTarget)
}

// RemoveUserInterest drops the requester's interest in the named user.
func (c *Controller) RemoveUserInterest(requesterID uuid.UUID, name string) error {
	return c.removeInterest("remove_user_interest", requesterID, name, c.userTarget)
}

// AddConversationInterest starts tracking the titled conversation for the
// requester.
func (c *Controller) AddConversationInterest(requesterID uuid.UUID, title string) error {
	return c.addInterest("add_conversation_interest", requesterID, title, c.conversationTarget)
}

// RemoveConversationInterest drops the requester's interest in the titled
// conversation.
func (c *Controller) RemoveConversationInterest(requesterID uuid.UUID, title string) error {
	return c.removeInterest("remove_conversation_interest", requesterID, title, c.conversationTarget)
}

// ConversationStatusUpdate counts the messages added to the titled
// conversation since the requester last checked, then moves the watermark to
// now. ok is false when the conversation is not one of the requester's
// interests.
func (c *Controller) ConversationStatusUpdate(requesterID uuid.UUID, title string) (count int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.store.UserByID(requesterID)
	h := c.store.ConversationByTitle(title)
	if u == nil || h == nil {
		return 0, false
	}
	since, ok := u.Watermark(h.ID)
	if !ok {
		return 0, false
	}
	for _, m := range c.store.Chain(h) {
		if m.CreatedAt.After(since) {
			count++
		}
	}
	u.AdvanceWatermark(h.ID, c.now())
	return count, true
}

// UserStatusUpdate returns the conversations the named user posted to since
// the requester last checked, sorted by title, then moves the watermark to
// now. ok is false when the user is not one of the requester's interests.
func (c *Controller) UserStatusUpdate(requesterID uuid.UUID, name string) ([]model.ConversationHeader, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.store.UserByID(requesterID)
	target := c.store.UserByName(name)
	if u == nil || target == nil {
		return nil, false
	}
	since, ok := u.Watermark(target.ID)
	if !ok {
		return nil, false
	}

	seen := map[uuid.UUID]bool{}
	out := []model.ConversationHeader{}
	for _, m := range c.store.Messages() {
		if m.AuthorID != target.ID || !m.CreatedAt.After(since) || seen[m.ConversationID] {
			continue
		}
		seen[m.ConversationID] = true
		if h := c.store.ConversationByID(m.ConversationID); h != nil {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	u.AdvanceWatermark(target.ID, c.now())
	return out, true
}
