package controller

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/journal"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/security"
)

// JoinConversation gives the user MEMBER access when it has no entry for the
// conversation. An existing entry of any level is left alone. The returned
// level is the user's level after the call.
func (c *Controller) JoinConversation(conversationID, userID uuid.UUID) (level model.AccessLevel, err error) {
	defer func(start time.Time) { security.ObserveOperation("join_conversation", start, err) }(time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.store.ConversationByID(conversationID)
	if conv == nil {
		return model.AccessNone, &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	u := c.store.UserByID(userID)
	if u == nil {
		return model.AccessNone, &NotFoundError{Resource: "user", ID: userID.String()}
	}
	if u.HasAccessEntry(conv.ID) {
		return u.Access(conv.ID), nil
	}
	c.setAccess(persist, u, conv, model.AccessMember)
	return model.AccessMember, nil
}

// GetAccess returns the user's level on the conversation, AccessNone when it
// has no entry.
func (c *Controller) GetAccess(conversationID, userID uuid.UUID) (model.AccessLevel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conv := c.store.ConversationByID(conversationID)
	if conv == nil {
		return model.AccessNone, &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	u := c.store.UserByID(userID)
	if u == nil {
		return model.AccessNone, &NotFoundError{Resource: "user", ID: userID.String()}
	}
	return u.Access(conv.ID), nil
}

// Member pairs a user with its level on a conversation.
type Member struct {
	UserID   uuid.UUID         `json:"userId"`
	UserName string            `json:"userName"`
	Level    model.AccessLevel `json:"accessLevel"`
}

// Members lists every user holding an entry for the conversation, in user
// creation order.
func (c *Controller) Members(conversationID uuid.UUID) ([]Member, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	conv := c.store.ConversationByID(conversationID)
	if conv == nil {
		return nil, &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	var out []Member
	for _, u := range c.store.Users() {
		if level := u.Access(conv.ID); level != model.AccessNone {
			out = append(out, Member{UserID: u.ID, UserName: u.Name, Level: level})
		}
	}
	return out, nil
}

// ChangeAccess sets the named target's level on a conversation on behalf of
// requestorID. The requestor needs OWNER or better, may not change itself,
// may not touch the creator and may not grant CREATOR. AccessNone removes the
// target's entry. Nothing is journaled when the level is already in place.
func (c *Controller) ChangeAccess(requestorID uuid.UUID, targetName string, level model.AccessLevel, conversationID uuid.UUID) (err error) {
	defer func(start time.Time) { security.ObserveOperation("change_access", start, err) }(time.Now())

	if !level.IsValid() {
		return &ValidationError{Field: "accessLevel", Message: fmt.Sprintf("unknown access level %d", int(level))}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.store.ConversationByID(conversationID)
	if conv == nil {
		return &NotFoundError{Resource: "conversation", ID: conversationID.String()}
	}
	requestor := c.store.UserByID(requestorID)
	if requestor == nil {
		return &NotFoundError{Resource: "user", ID: requestorID.String()}
	}
	if !requestor.Access(conv.ID).IsAtLeast(model.AccessOwner) {
		return &ForbiddenError{Reason: "requires owner access"}
	}
	target := c.store.UserByName(targetName)
	if target == nil {
		return &NotFoundError{Resource: "user", ID: targetName}
	}
	if target.ID == requestor.ID {
		return &ForbiddenError{Reason: "cannot change own access"}
	}
	if target.Access(conv.ID) == model.AccessCreator {
		return &ForbiddenError{Reason: "cannot change the creator's access"}
	}
	if level == model.AccessCreator {
		return &ForbiddenError{Reason: "creator access cannot be granted"}
	}

	if target.Access(conv.ID) == level {
		return nil
	}
	c.setAccess(persist, target, conv, level)
	log.Info("Access changed", "conversation", conv.ID, "user", target.ID, "by", requestor.ID, "level", level)
	return nil
}

func (c *Controller) setAccess(m mode, u *model.User, conv *model.ConversationHeader, level model.AccessLevel) {
	u.SetAccess(conv.ID, level)
	c.record(m, journal.AccessChanged{UserID: u.ID, ConversationID: conv.ID, Level: level})
}

// applyAccess restores a journaled access change. The permission checks ran
// when the change was first made; CREATOR only ever comes from the
// conversation record.
func (c *Controller) applyAccess(r journal.AccessChanged) error {
	if !r.Level.IsValid() {
		return fmt.Errorf("unknown access level %d", int(r.Level))
	}
	if r.Level == model.AccessCreator {
		return fmt.Errorf("refusing to grant creator access to %s on %s", r.UserID, r.ConversationID)
	}
	u := c.store.UserByID(r.UserID)
	if u == nil {
		return &NotFoundError{Resource: "user", ID: r.UserID.String()}
	}
	conv := c.store.ConversationByID(r.ConversationID)
	if conv == nil {
		return &NotFoundError{Resource: "conversation", ID: r.ConversationID.String()}
	}
	if u.Access(conv.ID) == model.AccessCreator {
		return fmt.Errorf("refusing to alter creator access of %s on %s", u.ID, conv.ID)
	}
	c.setAccess(replay, u, conv, r.Level)
	return nil
}
