package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccessLevel represents the level of access a user has to a conversation.
// Levels are ordered: AccessCreator > AccessOwner > AccessMember > AccessNone.
type AccessLevel int

const (
	// AccessNone is the absence of an access-map entry.
	AccessNone AccessLevel = iota
	AccessMember
	AccessOwner
	AccessCreator
)

// IsAtLeast returns true if the access level is at least the given level.
func (a AccessLevel) IsAtLeast(level AccessLevel) bool {
	return a >= level
}

// IsValid reports whether a is one of the defined levels.
func (a AccessLevel) IsValid() bool {
	return a >= AccessNone && a <= AccessCreator
}

// String returns the tag used on the wire and in the journal.
func (a AccessLevel) String() string {
	switch a {
	case AccessMember:
		return "member"
	case AccessOwner:
		return "owner"
	case AccessCreator:
		return "creator"
	default:
		return "remove"
	}
}

// ParseAccessLevel parses a tag produced by String. Matching is case-insensitive.
// "none" is accepted as an alias for "remove".
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member":
		return AccessMember, nil
	case "owner":
		return AccessOwner, nil
	case "creator":
		return AccessCreator, nil
	case "remove", "none":
		return AccessNone, nil
	default:
		return AccessNone, fmt.Errorf("unknown access level %q", s)
	}
}

func (a AccessLevel) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccessLevel) UnmarshalText(text []byte) error {
	level, err := ParseAccessLevel(string(text))
	if err != nil {
		return err
	}
	*a = level
	return nil
}

// User is a registered chat user. The access and interest maps are owned
// exclusively by the user and are only mutated by the controller.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`

	access    map[uuid.UUID]AccessLevel
	interests map[uuid.UUID]time.Time
}

// NewUser returns a user with empty access and interest maps.
func NewUser(id uuid.UUID, name string, createdAt time.Time) *User {
	return &User{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
		access:    map[uuid.UUID]AccessLevel{},
		interests: map[uuid.UUID]time.Time{},
	}
}

// Access returns the user's level on a conversation, AccessNone if absent.
func (u *User) Access(conversationID uuid.UUID) AccessLevel {
	return u.access[conversationID]
}

// HasAccessEntry reports whether the user has any entry for the conversation.
func (u *User) HasAccessEntry(conversationID uuid.UUID) bool {
	_, ok := u.access[conversationID]
	return ok
}

// SetAccess overwrites the entry for a conversation; AccessNone removes it.
func (u *User) SetAccess(conversationID uuid.UUID, level AccessLevel) {
	if level == AccessNone {
		delete(u.access, conversationID)
		return
	}
	u.access[conversationID] = level
}

// AccessMap returns a copy of the user's access map.
func (u *User) AccessMap() map[uuid.UUID]AccessLevel {
	out := make(map[uuid.UUID]AccessLevel, len(u.access))
	for k, v := range u.access {
		out[k] = v
	}
	return out
}

// Watermark returns the last-checked time for an interest target.
func (u *User) Watermark(targetID uuid.UUID) (time.Time, bool) {
	t, ok := u.interests[targetID]
	return t, ok
}

// AddInterest records a new interest. It returns false if already present.
func (u *User) AddInterest(targetID uuid.UUID, now time.Time) bool {
	if _, ok := u.interests[targetID]; ok {
		return false
	}
	u.interests[targetID] = now
	return true
}

// RemoveInterest drops an interest. It returns false if it was absent.
func (u *User) RemoveInterest(targetID uuid.UUID) bool {
	if _, ok := u.interests[targetID]; !ok {
		return false
	}
	delete(u.interests, targetID)
	return true
}

// AdvanceWatermark moves an existing interest's watermark to t.
func (u *User) AdvanceWatermark(targetID uuid.UUID, t time.Time) {
	if _, ok := u.interests[targetID]; ok {
		u.interests[targetID] = t
	}
}

// Clone returns a deep copy that is safe to hand out of the controller lock.
func (u *User) Clone() User {
	c := User{
		ID:        u.ID,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		access:    u.AccessMap(),
		interests: make(map[uuid.UUID]time.Time, len(u.interests)),
	}
	for k, v := range u.interests {
		c.interests[k] = v
	}
	return c
}

// ConversationHeader describes a conversation and caches the ends of its
// message chain. Head and Tail are uuid.Nil exactly when the conversation is
// empty.
type ConversationHeader struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	OwnerID   uuid.UUID `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	Head      uuid.UUID `json:"firstMessageId"`
	Tail      uuid.UUID `json:"lastMessageId"`
}

// IsEmpty reports whether no message has been appended yet.
func (c *ConversationHeader) IsEmpty() bool {
	return c.Head == uuid.Nil
}

// Message is one entry in a conversation's chain. Next is uuid.Nil for the
// last message and is written once, by the following append.
type Message struct {
	ID             uuid.UUID `json:"id"`
	AuthorID       uuid.UUID `json:"authorId"`
	ConversationID uuid.UUID `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
	Body           string    `json:"body"`
	Next           uuid.UUID `json:"nextMessageId"`
}
