package controller

import (
	"testing"

	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/journal"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
	"github.com/stretchr/testify/require"
)

type accessFixture struct {
	c       *Controller
	j       *memJournal
	alice   model.User
	bob     model.User
	carol   model.User
	general model.ConversationHeader
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	j := &memJournal{}
	c := newTestController(t, j)
	f := &accessFixture{c: c, j: j}
	var err error
	f.alice, err = c.NewUser("alice")
	require.NoError(t, err)
	f.bob, err = c.NewUser("bob")
	require.NoError(t, err)
	f.carol, err = c.NewUser("carol")
	require.NoError(t, err)
	f.general, err = c.NewConversation("general", f.alice.ID)
	require.NoError(t, err)
	return f
}

func (f *accessFixture) level(t *testing.T, u model.User) model.AccessLevel {
	t.Helper()
	level, err := f.c.GetAccess(f.general.ID, u.ID)
	require.NoError(t, err)
	return level
}

func TestJoinConversation(t *testing.T) {
	f := newAccessFixture(t)
	before := f.j.Len()

	level, err := f.c.JoinConversation(f.general.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, model.AccessMember, level)
	require.Equal(t, before+1, f.j.Len())
	require.Equal(t, journal.AccessChanged{UserID: f.bob.ID, ConversationID: f.general.ID, Level: model.AccessMember}, f.j.records[before])

	// joining again changes nothing
	level, err = f.c.JoinConversation(f.general.ID, f.bob.ID)
	require.NoError(t, err)
	require.Equal(t, model.AccessMember, level)
	require.Equal(t, before+1, f.j.Len())

	// the creator is not downgraded
	level, err = f.c.JoinConversation(f.general.ID, f.alice.ID)
	require.NoError(t, err)
	require.Equal(t, model.AccessCreator, level)

	_, err = f.c.JoinConversation(uuid.New(), f.bob.ID)
	require.True(t, IsNotFound(err))
	_, err = f.c.JoinConversation(f.general.ID, uuid.New())
	require.True(t, IsNotFound(err))
}

func TestGetAccessWithoutEntry(t *testing.T) {
	f := newAccessFixture(t)
	require.Equal(t, model.AccessNone, f.level(t, f.bob))
	_, err := f.c.GetAccess(uuid.New(), f.bob.ID)
	require.True(t, IsNotFound(err))
}

func TestChangeAccessRules(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, f *accessFixture)
		requestor func(f *accessFixture) uuid.UUID
		target    string
		level     model.AccessLevel
		wantErr   any
	}{
		{
			name:      "creator promotes member to owner",
			setup:     func(t *testing.T, f *accessFixture) { f.c.JoinConversation(f.general.ID, f.bob.ID) },
			requestor: func(f *accessFixture) uuid.UUID { return f.alice.ID },
			target:    "bob",
			level:     model.AccessOwner,
		},
		{
			name:      "creator adds a user without an entry",
			requestor: func(f *accessFixture) uuid.UUID { return f.alice.ID },
			target:    "carol",
			level:     model.AccessMember,
		},
		{
			name:      "member cannot change access",
			setup:     func(t *testing.T, f *accessFixture) { f.c.JoinConversation(f.general.ID, f.bob.ID) },
			requestor: func(f *accessFixture) uuid.UUID { return f.bob.ID },
			target:    "carol",
			level:     model.AccessMember,
			wantErr:   &ForbiddenError{},
		},
		{
			name:      "outsider cannot change access",
			requestor: func(f *accessFixture) uuid.UUID { return f.carol.ID },
			target:    "bob",
			level:     model.AccessMember,
			wantErr:   &ForbiddenError{},
		},
		{
			name: "owner cannot change itself",
			setup: func(t *testing.T, f *accessFixture) {
				require.NoError(t, f.c.ChangeAccess(f.alice.ID, "bob", model.AccessOwner, f.general.ID))
			},
			requestor: func(f *accessFixture) uuid.UUID { return f.bob.ID },
			target:    "bob",
			level:     model.AccessMember,
			wantErr:   &ForbiddenError{},
		},
		{
			name: "owner cannot touch the creator",
			setup: func(t *testing.T, f *accessFixture) {
				require.NoError(t, f.c.ChangeAccess(f.alice.ID, "bob", model.AccessOwner, f.general.ID))
			},
			requestor: func(f *accessFixture) uuid.UUID { return f.bob.ID },
			target:    "alice",
			level:     model.AccessNone,
			wantErr:   &ForbiddenError{},
		},
		{
			name:      "creator cannot be granted",
			requestor: func(f *accessFixture) uuid.UUID { return f.alice.ID },
			target:    "bob",
			level:     model.AccessCreator,
			wantErr:   &ForbiddenError{},
		},
		{
			name:      "undefined level",
			setup:     func(t *testing.T, f *accessFixture) { f.c.JoinConversation(f.general.ID, f.bob.ID) },
			requestor: func(f *accessFixture) uuid.UUID { return f.alice.ID },
			target:    "bob",
			level:     model.AccessLevel(7),
			wantErr:   &ValidationError{},
		},
		{
			name:      "unknown target",
			requestor: func(f *accessFixture) uuid.UUID { return f.alice.ID },
			target:    "mallory",
			level:     model.AccessMember,
			wantErr:   &NotFoundError{},
		},
		{
			name:      "unknown requestor",
			requestor: func(f *accessFixture) uuid.UUID { return uuid.New() },
			target:    "bob",
			level:     model.AccessMember,
			wantErr:   &NotFoundError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAccessFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			target, _ := f.c.UserByName(tt.target)
			levelBefore := model.AccessNone
			if target.ID != uuid.Nil {
				levelBefore = f.level(t, target)
			}
			recordsBefore := f.j.Len()

			err := f.c.ChangeAccess(tt.requestor(f), tt.target, tt.level, f.general.ID)
			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
				require.Equal(t, tt.level, f.level(t, target))
				require.Equal(t, recordsBefore+1, f.j.Len())
			case *ForbiddenError:
				require.ErrorAs(t, err, &want)
			case *NotFoundError:
				require.ErrorAs(t, err, &want)
			case *ValidationError:
				require.ErrorAs(t, err, &want)
			}
			if tt.wantErr != nil {
				require.Equal(t, recordsBefore, f.j.Len())
				if target.ID != uuid.Nil {
					require.Equal(t, levelBefore, f.level(t, target))
				}
			}
		})
	}
}

func TestChangeAccessRemovesEntry(t *testing.T) {
	f := newAccessFixture(t)
	_, err := f.c.JoinConversation(f.general.ID, f.bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.c.ChangeAccess(f.alice.ID, "bob", model.AccessNone, f.general.ID))
	require.Equal(t, model.AccessNone, f.level(t, f.bob))
	bob, _ := f.c.UserByID(f.bob.ID)
	require.False(t, bob.HasAccessEntry(f.general.ID))

	last := f.j.records[f.j.Len()-1]
	require.Equal(t, journal.AccessChanged{UserID: f.bob.ID, ConversationID: f.general.ID, Level: model.AccessNone}, last)
}

func TestChangeAccessNoopIsNotJournaled(t *testing.T) {
	f := newAccessFixture(t)
	require.NoError(t, f.c.ChangeAccess(f.alice.ID, "bob", model.AccessMember, f.general.ID))
	n := f.j.Len()
	require.NoError(t, f.c.ChangeAccess(f.alice.ID, "bob", model.AccessMember, f.general.ID))
	require.NoError(t, f.c.ChangeAccess(f.alice.ID, "carol", model.AccessNone, f.general.ID))
	require.Equal(t, n, f.j.Len())
}

func TestMembers(t *testing.T) {
	f := newAccessFixture(t)
	_, err := f.c.JoinConversation(f.general.ID, f.carol.ID)
	require.NoError(t, err)

	members, err := f.c.Members(f.general.ID)
	require.NoError(t, err)
	require.Equal(t, []Member{
		{UserID: f.alice.ID, UserName: "alice", Level: model.AccessCreator},
		{UserID: f.carol.ID, UserName: "carol", Level: model.AccessMember},
	}, members)
}
