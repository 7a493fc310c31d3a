package terminal

import (
	"errors"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Control bytes seen in raw mode.
const (
	keyCtrlC     = 0x03
	keyCtrlD     = 0x04
	keyBS        = 0x08
	keyTab       = 0x09
	keyLF        = 0x0a
	keyCR        = 0x0d
	keyEsc       = 0x1b
	keyDel       = 0x7f
	csiIntroduce = '['
)

// escapeDelay is how long a lone ESC waits for the rest of a sequence.
// Slow links can split an arrow key across reads.
const escapeDelay = 40 * time.Millisecond

// keyReader decodes key presses from a byte stream. A pump goroutine
// forwards input bytes on a channel so the decoder can wait for a
// follow-up byte with a timeout.
type keyReader struct {
	bytes   chan byte
	done    <-chan struct{}
	escWait time.Duration

	// err is written by the pump before bytes is closed.
	err     error
	pending []byte
}

func newKeyReader(in io.Reader, done <-chan struct{}) *keyReader {
	k := &keyReader{
		bytes:   make(chan byte, 64),
		done:    done,
		escWait: escapeDelay,
	}
	go k.pump(in)
	return k
}

// pump copies in to the bytes channel until a read fails or done closes.
func (k *keyReader) pump(in io.Reader) {
	defer close(k.bytes)
	buf := make([]byte, 64)
	for {
		n, err := in.Read(buf)
		for _, b := range buf[:n] {
			select {
			case k.bytes <- b:
			case <-k.done:
				k.err = ErrClosed
				return
			}
		}
		if err != nil {
			k.err = err
			return
		}
	}
}

func (k *keyReader) unread(b byte) {
	k.pending = append(k.pending, b)
}

// readByte blocks for the next input byte. Once the input fails every
// call returns the same error.
func (k *keyReader) readByte() (byte, error) {
	if n := len(k.pending); n > 0 {
		b := k.pending[n-1]
		k.pending = k.pending[:n-1]
		return b, nil
	}
	select {
	case b, ok := <-k.bytes:
		if !ok {
			return 0, k.err
		}
		return b, nil
	case <-k.done:
		return 0, ErrClosed
	}
}

// readByteWithin is readByte bounded by d. ok is false on timeout.
func (k *keyReader) readByteWithin(d time.Duration) (b byte, ok bool, err error) {
	if n := len(k.pending); n > 0 {
		b, err = k.readByte()
		return b, true, err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case b, open := <-k.bytes:
		if !open {
			return 0, false, k.err
		}
		return b, true, nil
	case <-timer.C:
		return 0, false, nil
	case <-k.done:
		return 0, false, ErrClosed
	}
}

func (k *keyReader) readRune() (rune, error) {
	b, err := k.readByte()
	if err != nil {
		return 0, err
	}
	if b < utf8.RuneSelf {
		return rune(b), nil
	}

	buf := []byte{b}
	for !utf8.FullRune(buf) {
		b, err := k.readByte()
		if err != nil {
			return 0, err
		}
		buf = append(buf, b)
	}
	r, _ := utf8.DecodeRune(buf)
	return r, nil
}

// readKey reads one key press and returns its name. Unknown control
// sequences are swallowed and reading continues.
func (k *keyReader) readKey() (string, error) {
	for {
		c, err := k.readRune()
		if err != nil {
			return "", err
		}

		switch c {
		case keyEsc:
			name, ok, err := k.readEscape()
			if err != nil {
				return "", err
			}
			if ok {
				return name, nil
			}
			continue
		case keyDel, keyBS:
			return "backspace", nil
		case keyCR, keyLF:
			return "enter", nil
		case keyTab:
			return "tab", nil
		case ' ':
			return "space", nil
		case keyCtrlC, keyCtrlD:
			// raw mode swallows the signal, treat it as quit
			return "escape", nil
		}

		if c == utf8.RuneError || unicode.IsControl(c) {
			continue
		}
		return strings.ToLower(string(c)), nil
	}
}

// readEscape resolves what follows an ESC byte. An ESC not followed by
// '[' within escWait is the Escape key itself.
func (k *keyReader) readEscape() (string, bool, error) {
	next, ok, err := k.readByteWithin(k.escWait)
	if errors.Is(err, ErrClosed) {
		return "", false, err
	}
	if !ok || err != nil {
		return "escape", true, nil
	}
	if next != csiIntroduce {
		k.unread(next)
		return "escape", true, nil
	}

	// Parameter bytes run until the final byte in 0x40-0x7e
	for {
		b, ok, err := k.readByteWithin(k.escWait)
		if errors.Is(err, ErrClosed) {
			return "", false, err
		}
		if !ok || err != nil {
			return "", false, nil
		}
		if b < 0x40 || b > 0x7e {
			continue
		}
		switch b {
		case 'D':
			return "left", true, nil
		case 'C':
			return "right", true, nil
		case 'A':
			return "up", true, nil
		case 'B':
			return "down", true, nil
		}
		return "", false, nil
	}
}
