package journal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nikkibisarya/CodeU-Summer-2017/internal/model"
)

// Kind is the type tag written in front of every record.
type Kind string

const (
	KindUser         Kind = "user"
	KindMessage      Kind = "message"
	KindConversation Kind = "conversationheader"
	KindAccess       Kind = "changeaccessrequest"
)

// Record is one committed mutation. The concrete types below are the only
// implementations.
type Record interface {
	Kind() Kind
}

// UserCreated records a new user.
type UserCreated struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// MessageCreated records an appended message. Chain links are rebuilt by
// replay order and are not stored.
type MessageCreated struct {
	ID             uuid.UUID
	AuthorID       uuid.UUID
	ConversationID uuid.UUID
	CreatedAt      time.Time
	Body           string
}

// ConversationCreated records a new conversation header.
type ConversationCreated struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	CreatedAt time.Time
	Title     string
}

// AccessChanged records a new access level for a user on a conversation.
// model.AccessNone means the entry was removed.
type AccessChanged struct {
	UserID         uuid.UUID
	ConversationID uuid.UUID
	Level          model.AccessLevel
}

func (UserCreated) Kind() Kind         { return KindUser }
func (MessageCreated) Kind() Kind      { return KindMessage }
func (ConversationCreated) Kind() Kind { return KindConversation }
func (AccessChanged) Kind() Kind       { return KindAccess }

// UnknownKindError is returned by Decoder.Next for a record whose tag is not
// recognized. The record has been consumed.
type UnknownKindError struct {
	Kind Kind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown record kind %q", e.Kind)
}

// PayloadSize returns the encoded payload length of rec, without the
// separator, tag and payload length prefix.
func PayloadSize(rec Record) (int, error) {
	switch r := rec.(type) {
	case UserCreated:
		return uuidLen + lenLen + len(r.Name) + timeLen, nil
	case MessageCreated:
		return 3*uuidLen + timeLen + lenLen + len(r.Body), nil
	case ConversationCreated:
		return 2*uuidLen + timeLen + lenLen + len(r.Title), nil
	case AccessChanged:
		if !r.Level.IsValid() {
			return 0, fmt.Errorf("cannot encode access level %d", int(r.Level))
		}
		return 2*uuidLen + lenLen + len(r.Level.String()), nil
	default:
		return 0, fmt.Errorf("cannot encode record of type %T", rec)
	}
}

// CheckSize returns an error wrapping ErrTooLarge when rec could not be read
// back by a Decoder.
func CheckSize(rec Record) error {
	n, err := PayloadSize(rec)
	if err != nil {
		return err
	}
	if n > MaxPayloadSize {
		return fmt.Errorf("%w: %s payload of %d bytes exceeds %d", ErrTooLarge, rec.Kind(), n, MaxPayloadSize)
	}
	return nil
}

// Marshal encodes a record in its framed on-disk form.
func Marshal(rec Record) ([]byte, error) {
	if err := CheckSize(rec); err != nil {
		return nil, err
	}
	var body bytes.Buffer
	switch r := rec.(type) {
	case UserCreated:
		writeUUID(&body, r.ID)
		writeString(&body, r.Name)
		writeTime(&body, r.CreatedAt)
	case MessageCreated:
		writeUUID(&body, r.ID)
		writeUUID(&body, r.AuthorID)
		writeUUID(&body, r.ConversationID)
		writeTime(&body, r.CreatedAt)
		writeString(&body, r.Body)
	case ConversationCreated:
		writeUUID(&body, r.ID)
		writeUUID(&body, r.OwnerID)
		writeTime(&body, r.CreatedAt)
		writeString(&body, r.Title)
	case AccessChanged:
		writeUUID(&body, r.UserID)
		writeUUID(&body, r.ConversationID)
		writeString(&body, r.Level.String())
	default:
		return nil, fmt.Errorf("cannot encode record of type %T", rec)
	}

	var out bytes.Buffer
	out.WriteByte(separator)
	writeString(&out, string(rec.Kind()))
	writeBytes(&out, body.Bytes())
	return out.Bytes(), nil
}

// Encode writes a record to w with a single Write call.
func Encode(w io.Writer, rec Record) error {
	b, err := Marshal(rec)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// fieldReader reads payload fields, remembering the first error.
type fieldReader struct {
	r   io.Reader
	err error
}

func (f *fieldReader) uuid() uuid.UUID {
	if f.err != nil {
		return uuid.Nil
	}
	var id uuid.UUID
	id, f.err = readUUID(f.r)
	return id
}

func (f *fieldReader) string() string {
	if f.err != nil {
		return ""
	}
	var s string
	s, f.err = readString(f.r)
	return s
}

func (f *fieldReader) time() time.Time {
	if f.err != nil {
		return time.Time{}
	}
	var t time.Time
	t, f.err = readTime(f.r)
	return t
}

func (f *fieldReader) accessLevel() model.AccessLevel {
	tag := f.string()
	if f.err != nil {
		return model.AccessNone
	}
	var level model.AccessLevel
	level, f.err = model.ParseAccessLevel(tag)
	return level
}

func decodeBody(kind Kind, payload []byte) (Record, error) {
	f := &fieldReader{r: bytes.NewReader(payload)}
	var rec Record
	switch kind {
	case KindUser:
		rec = UserCreated{ID: f.uuid(), Name: f.string(), CreatedAt: f.time()}
	case KindMessage:
		rec = MessageCreated{
			ID:             f.uuid(),
			AuthorID:       f.uuid(),
			ConversationID: f.uuid(),
			CreatedAt:      f.time(),
			Body:           f.string(),
		}
	case KindConversation:
		rec = ConversationCreated{ID: f.uuid(), OwnerID: f.uuid(), CreatedAt: f.time(), Title: f.string()}
	case KindAccess:
		rec = AccessChanged{UserID: f.uuid(), ConversationID: f.uuid(), Level: f.accessLevel()}
	default:
		return nil, &UnknownKindError{Kind: kind}
	}
	if f.err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, kind, f.err)
	}
	return rec, nil
}

// Decoder reads records sequentially from a journal stream.
type Decoder struct {
	r      *bufio.Reader
	offset int64
}

// NewDecoder returns a decoder reading records from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed by fully read records.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Next returns the next record. It returns io.EOF at a clean end of stream,
// ErrTruncated when the stream stops inside a record, an error wrapping
// ErrCorrupt when framing is broken, and *UnknownKindError or an error
// wrapping ErrMalformedPayload for a record that was consumed but cannot be
// used.
func (d *Decoder) Next() (Record, error) {
	sep, err := d.r.ReadByte()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	if sep != separator {
		return nil, fmt.Errorf("%w: unexpected byte 0x%02x at offset %d", ErrCorrupt, sep, d.offset)
	}
	tag, err := readString(d.r)
	if err != nil {
		return nil, err
	}
	payload, err := readBytes(d.r)
	if err != nil {
		return nil, err
	}
	d.offset += int64(1 + 4 + len(tag) + 4 + len(payload))
	return decodeBody(Kind(tag), payload)
}
