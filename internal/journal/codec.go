package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

const (
	// separator starts every record.
	separator byte = 0x00

	// maxFieldLen bounds a single length-prefixed field, the framed payload
	// included. Anything larger is treated as corruption rather than an
	// allocation request.
	maxFieldLen = 16 << 20

	// MaxPayloadSize is the largest record payload the decoder accepts.
	// Marshal refuses anything larger.
	MaxPayloadSize = maxFieldLen

	uuidLen = 16
	timeLen = 8
	lenLen  = 4
)

var (
	// ErrTooLarge means a record payload would exceed MaxPayloadSize.
	ErrTooLarge = errors.New("journal record too large")
	// ErrCorrupt means the journal cannot be read past this point.
	ErrCorrupt = errors.New("journal corrupt")
	// ErrTruncated means the journal ends in the middle of a record.
	ErrTruncated = errors.New("journal truncated")
	// ErrMalformedPayload means a framed payload could not be decoded. The
	// payload has been consumed, so the next record is still readable.
	ErrMalformedPayload = errors.New("malformed record payload")
)

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, p []byte) {
	writeUint32(buf, uint32(len(p)))
	buf.Write(p)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func writeUUID(buf *bytes.Buffer, id uuid.UUID) {
	buf.Write(id[:])
}

func writeTime(buf *bytes.Buffer, t time.Time) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(t.UnixNano()))
	buf.Write(b[:])
}

// readFull maps a short read to ErrTruncated.
func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncated
		}
		return err
	}
	return nil
}

func readBytes(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFieldLen {
		return nil, fmt.Errorf("%w: field length %d exceeds limit", ErrCorrupt, n)
	}
	p := make([]byte, n)
	if err := readFull(r, p); err != nil {
		return nil, err
	}
	return p, nil
}

func readString(r io.Reader) (string, error) {
	p, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func readUUID(r io.Reader) (uuid.UUID, error) {
	var id uuid.UUID
	if err := readFull(r, id[:]); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func readTime(r io.Reader) (time.Time, error) {
	var b [8]byte
	if err := readFull(r, b[:]); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b[:]))).UTC(), nil
}
