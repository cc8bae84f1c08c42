package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	corebytes "github.com/opencw/brazier/internal/core/bytes"
)

// Wire-level errors. All of them are fatal for the session that produced them.
var (
	ErrUnknownPacket  = errors.New("unknown packet id")
	ErrTrailingBytes  = errors.New("trailing bytes in compressed body")
	ErrOverlongString = errors.New("string length out of range")
	ErrBadPadding     = errors.New("non-zero bytes in required padding")
)

// Upper bound applied to every length prefix read off the wire so that a
// hostile client cannot make the server allocate unbounded memory.
const maxSequenceLength = 0x40000

// maxStringLength bounds the character count of wire strings.
const maxStringLength = 0x1000

func readLE(r io.Reader, data interface{}) error {
	return binary.Read(r, binary.LittleEndian, data)
}

func writeLE(w io.Writer, data interface{}) error {
	return binary.Write(w, binary.LittleEndian, data)
}

func readCount(r io.Reader) (int, error) {
	var count int32
	if err := readLE(r, &count); err != nil {
		return 0, err
	}
	if count < 0 || count > maxSequenceLength {
		return 0, fmt.Errorf("sequence length %d out of range", count)
	}
	return int(count), nil
}

func writeCount(w io.Writer, count int) error {
	return writeLE(w, int32(count))
}

// readSequence decodes an `<i32 count><count x element>` sequence.
func readSequence[T any](r io.Reader, readElem func(io.Reader) (T, error)) ([]T, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	elems := make([]T, 0, count)
	for i := 0; i < count; i++ {
		elem, err := readElem(r)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	return elems, nil
}

func writeSequence[T any](w io.Writer, elems []T, writeElem func(io.Writer, T) error) error {
	if err := writeCount(w, len(elems)); err != nil {
		return err
	}
	for i := range elems {
		if err := writeElem(w, elems[i]); err != nil {
			return err
		}
	}
	return nil
}

// readBlitSequence reads a sequence of fixed-layout structs.
func readBlitSequence[T any](r io.Reader) ([]T, error) {
	return readSequence(r, func(r io.Reader) (T, error) {
		var elem T
		err := readLE(r, &elem)
		return elem, err
	})
}

func writeBlitSequence[T any](w io.Writer, elems []T) error {
	return writeSequence(w, elems, func(w io.Writer, elem T) error {
		return writeLE(w, elem)
	})
}

// readString decodes an `<i32 char-count><UTF-16LE code units>` string.
func readString(r io.Reader) (string, error) {
	var chars int32
	if err := readLE(r, &chars); err != nil {
		return "", err
	}
	if chars < 0 || chars > maxStringLength {
		return "", ErrOverlongString
	}
	raw := make([]byte, int(chars)*2)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return corebytes.ConvertFromUtf16(raw), nil
}

// writeString encodes a string as a character count followed by UTF-16LE
// code units.
func writeString(w io.Writer, s string) error {
	encoded := corebytes.ConvertToUtf16(s)
	if len(encoded)/2 > maxStringLength {
		return ErrOverlongString
	}
	if err := writeLE(w, int32(len(encoded)/2)); err != nil {
		return err
	}
	_, err := w.Write(encoded)
	return err
}

// readCompressed reads an `<i32 compressed-size><zlib stream>` container
// and returns the inflated payload.
func readCompressed(r io.Reader) ([]byte, error) {
	var size int32
	if err := readLE(r, &size); err != nil {
		return nil, err
	}
	if size < 0 || size > maxSequenceLength*16 {
		return nil, fmt.Errorf("compressed body size %d out of range", size)
	}

	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("invalid compressed body: %w", err)
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("invalid compressed body: %w", err)
	}
	return inflated, nil
}

// writeCompressed deflates payload and writes it as a size-prefixed container.
func writeCompressed(w io.Writer, payload []byte) error {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if err := writeLE(w, int32(compressed.Len())); err != nil {
		return err
	}
	_, err := w.Write(compressed.Bytes())
	return err
}

// expectEOF returns ErrTrailingBytes unless r has been fully consumed.
func expectEOF(r *bytes.Reader) error {
	if r.Len() != 0 {
		return ErrTrailingBytes
	}
	return nil
}
