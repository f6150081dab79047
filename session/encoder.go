package session

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const sessionFormatVersionCurrent = 1

// ErrCorrupted is returned when a stored blob cannot be decoded. It is never
// folded into not-found: the caller decides whether to delete the record and
// re-authenticate.
var ErrCorrupted = errors.New("session blob corrupted")

// Encode serializes a session into the versioned binary format.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersionCurrent)

	if err := writeShortString(&buf, s.Identity, "identity"); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(s.State))
	buf.WriteByte(byte(s.Failure))
	if err := writeShortString(&buf, s.PhoneCodeHash, "phone code hash"); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.TwoFactorAttempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.AppID); err != nil {
		return nil, err
	}

	if len(s.AuthKey) > math.MaxUint16 {
		return nil, errors.New("auth key too large")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.AuthKey))); err != nil {
		return nil, err
	}
	buf.Write(s.AuthKey)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.UpdatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by [Encode]. Unknown versions and trailing
// bytes are rejected with [ErrCorrupted].
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrCorrupted
	}
	if version != sessionFormatVersionCurrent {
		return nil, ErrCorrupted
	}

	s := &Session{}

	if s.Identity, err = readShortString(reader); err != nil {
		return nil, ErrCorrupted
	}

	stateByte, err := reader.ReadByte()
	if err != nil || stateByte > byte(StateFailed) {
		return nil, ErrCorrupted
	}
	s.State = State(stateByte)

	failureByte, err := reader.ReadByte()
	if err != nil || failureByte > byte(FailureTooManyAttempts) {
		return nil, ErrCorrupted
	}
	s.Failure = FailureReason(failureByte)

	if s.PhoneCodeHash, err = readShortString(reader); err != nil {
		return nil, ErrCorrupted
	}
	if err := binary.Read(reader, binary.BigEndian, &s.TwoFactorAttempts); err != nil {
		return nil, ErrCorrupted
	}
	if err := binary.Read(reader, binary.BigEndian, &s.AppID); err != nil {
		return nil, ErrCorrupted
	}

	var keyLen uint16
	if err := binary.Read(reader, binary.BigEndian, &keyLen); err != nil {
		return nil, ErrCorrupted
	}
	if keyLen > 0 {
		s.AuthKey = make([]byte, keyLen)
		if _, err := io.ReadFull(reader, s.AuthKey); err != nil {
			return nil, ErrCorrupted
		}
	}

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, ErrCorrupted
	}
	if err := binary.Read(reader, binary.BigEndian, &s.UpdatedAt); err != nil {
		return nil, ErrCorrupted
	}

	if reader.Len() != 0 {
		return nil, ErrCorrupted
	}

	return s, nil
}

// EncodeString returns the session as a base64 string, suitable for moving a
// session between hosts through an environment variable or clipboard.
func (s *Session) EncodeString() (string, error) {
	raw, err := Encode(s)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeString reverses [Session.EncodeString].
func DecodeString(value string) (*Session, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrCorrupted
	}
	return Decode(raw)
}

func writeShortString(buf *bytes.Buffer, value, field string) error {
	if len(value) > 255 {
		return errors.New(field + " too long")
	}
	buf.WriteByte(byte(len(value)))
	buf.WriteString(value)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
