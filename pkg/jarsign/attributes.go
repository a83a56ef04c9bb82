package jarsign

import (
	"fmt"
	"io"
	"strings"
)

// Attributes is an ordered mapping of manifest attribute names to string
// values. Names compare case-insensitively but keep their original casing
// for display. Insertion order is preserved and drives serialization, which
// makes it significant for every digest computed downstream; setting an
// existing name overwrites the value in place without reordering.
type Attributes struct {
	names  []string       // original casing, insertion order
	lower  map[string]int // folded name -> index into names
	values map[string]string
}

// NewAttributes returns an empty attribute map.
func NewAttributes() *Attributes {
	return &Attributes{
		lower:  make(map[string]int),
		values: make(map[string]string),
	}
}

// validateAttributeName enforces the JAR manifest name rule: 1-70 bytes from
// [A-Za-z0-9_-].
func validateAttributeName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("%w: empty name", ErrInvalidAttributeName)
	}
	if len(name) > 70 {
		return fmt.Errorf("%w: %q exceeds 70 characters", ErrInvalidAttributeName, name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return fmt.Errorf("%w: %q contains invalid character %q", ErrInvalidAttributeName, name, c)
		}
	}
	return nil
}

// Set validates name and inserts or overwrites its value. A name that was
// already present keeps its original position and casing.
func (a *Attributes) Set(name, value string) error {
	if err := validateAttributeName(name); err != nil {
		return err
	}
	key := strings.ToLower(name)
	if _, ok := a.lower[key]; !ok {
		a.lower[key] = len(a.names)
		a.names = append(a.names, name)
	}
	a.values[key] = value
	return nil
}

// Get looks up a value case-insensitively.
func (a *Attributes) Get(name string) (string, bool) {
	v, ok := a.values[strings.ToLower(name)]
	return v, ok
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.names)
}

// Names returns the attribute names in insertion order, in their original
// casing.
func (a *Attributes) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Clone returns an independent copy.
func (a *Attributes) Clone() *Attributes {
	c := NewAttributes()
	c.names = append(c.names, a.names...)
	for k, i := range a.lower {
		c.lower[k] = i
	}
	for k, v := range a.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether both maps hold the same name/value pairs, comparing
// names case-insensitively and ignoring order.
func (a *Attributes) Equal(o *Attributes) bool {
	if a == nil || o == nil {
		return a == o
	}
	if len(a.values) != len(o.values) {
		return false
	}
	for k, v := range a.values {
		ov, ok := o.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Write serializes every attribute as "Name: Value\r\n" in insertion order,
// 72-byte-safe folded, followed by the blank line that terminates the
// section.
func (a *Attributes) Write(w io.Writer) error {
	for _, name := range a.names {
		if err := writeFoldedLine(w, name+": "+a.values[strings.ToLower(name)]+"\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

// WriteMain serializes a main attribute section: whichever of
// Manifest-Version or Signature-Version is present (checked in that order)
// is emitted first, then the remaining attributes in insertion order, then
// the blank terminator.
func (a *Attributes) WriteMain(w io.Writer) error {
	var first string
	if i, ok := a.lower["manifest-version"]; ok {
		first = a.names[i]
	} else if i, ok := a.lower["signature-version"]; ok {
		first = a.names[i]
	}
	if first != "" {
		if err := writeFoldedLine(w, first+": "+a.values[strings.ToLower(first)]+"\r\n"); err != nil {
			return err
		}
	}
	for _, name := range a.names {
		if first != "" && strings.EqualFold(name, first) {
			continue
		}
		if err := writeFoldedLine(w, name+": "+a.values[strings.ToLower(name)]+"\r\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

func writeFoldedLine(w io.Writer, line string) error {
	_, err := w.Write(make72Safe([]byte(line)))
	return err
}

// make72Safe folds a composed "Name: Value\r\n" line longer than 72 bytes by
// inserting "\r\n " every 72 bytes starting at offset 70, so that no
// physical line (continuation space included) exceeds 72 bytes. The break
// positions must match what a continuation-aware parser reassembles, byte
// for byte.
func make72Safe(line []byte) []byte {
	if len(line) <= 72 {
		return line
	}
	out := make([]byte, len(line), len(line)+3*(len(line)/69+1))
	copy(out, line)
	for index := 70; index < len(out)-2; index += 72 {
		grown := make([]byte, 0, len(out)+3)
		grown = append(grown, out[:index]...)
		grown = append(grown, '\r', '\n', ' ')
		grown = append(grown, out[index:]...)
		out = grown
	}
	return out
}
