package session

import (
	"bytes"
	"errors"
	"io"
)

const (
	snapshotFormatVersionCurrent = 1

	maxFieldLen = 65535
)

var errSnapshotVersion = errors.New("invalid session snapshot version")

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxFieldLen {
		return errors.New("session field too long")
	}
	buf.WriteByte(byte(len(s) >> 8))
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	hi, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	lo, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	length := int(hi)<<8 | int(lo)
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// Encode serializes an adopted handle for durable local storage.
func Encode(h *Handle) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(snapshotFormatVersionCurrent)

	if err := writeString(&buf, h.Token); err != nil {
		return nil, err
	}
	if err := writeString(&buf, h.Record.ID); err != nil {
		return nil, err
	}
	if err := writeString(&buf, h.Record.Email); err != nil {
		return nil, err
	}
	if err := writeString(&buf, h.Record.DisplayName); err != nil {
		return nil, err
	}

	if h.Record.Verified {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

// Decode restores a persisted handle snapshot.
func Decode(data []byte) (*Handle, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != snapshotFormatVersionCurrent {
		return nil, errSnapshotVersion
	}

	h := &Handle{}

	if h.Token, err = readString(reader); err != nil {
		return nil, err
	}
	if h.Record.ID, err = readString(reader); err != nil {
		return nil, err
	}
	if h.Record.Email, err = readString(reader); err != nil {
		return nil, err
	}
	if h.Record.DisplayName, err = readString(reader); err != nil {
		return nil, err
	}

	verified, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	h.Record.Verified = verified == 1

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in session snapshot")
	}

	return h, nil
}
