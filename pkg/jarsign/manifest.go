package jarsign

import (
	"fmt"
	"io"
	"strings"
)

// Manifest is a JAR manifest document: one main attribute section plus an
// ordered collection of per-entry sections keyed by exact-case entry name.
// Entry order, once established, is fixed for the life of the document and
// drives all downstream serialization and digesting.
type Manifest struct {
	Main *Attributes

	order   []string
	entries map[string]*Attributes

	// Diagnostics collects non-fatal conditions observed while parsing,
	// such as duplicate attribute names whose first value was kept.
	Diagnostics []string
}

// NewManifest returns an empty manifest document.
func NewManifest() *Manifest {
	return &Manifest{
		Main:    NewAttributes(),
		entries: make(map[string]*Attributes),
	}
}

// SetEntry inserts or replaces the attribute section for an entry. A new
// entry is appended to the document order; an existing one keeps its
// position.
func (m *Manifest) SetEntry(name string, attrs *Attributes) {
	if _, ok := m.entries[name]; !ok {
		m.order = append(m.order, name)
	}
	m.entries[name] = attrs
}

// Entry returns the attribute section for an entry name (exact-case match).
func (m *Manifest) Entry(name string) (*Attributes, bool) {
	attrs, ok := m.entries[name]
	return attrs, ok
}

// EntryNames returns the entry names in document order.
func (m *Manifest) EntryNames() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Write serializes the document: main attributes first, then each entry
// stanza in document order. Output is UTF-8 with CRLF line endings and
// 72-byte-safe folding throughout.
func (m *Manifest) Write(w io.Writer) error {
	if err := m.Main.WriteMain(w); err != nil {
		return err
	}
	for _, name := range m.order {
		if err := writeEntryStanza(w, name, m.entries[name]); err != nil {
			return err
		}
	}
	return nil
}

// writeEntryStanza emits one entry section: the folded Name line followed by
// the entry's attributes and blank terminator. The signature file generator
// digests these exact bytes, so this is the single source of stanza layout.
func writeEntryStanza(w io.Writer, name string, attrs *Attributes) error {
	if err := writeFoldedLine(w, "Name: "+name+"\r\n"); err != nil {
		return err
	}
	return attrs.Write(w)
}

// Equal reports whether two documents hold the same main attributes and the
// same entry sections. Entry order is not part of equality, though it is
// serialization-significant.
func (m *Manifest) Equal(o *Manifest) bool {
	if m == nil || o == nil {
		return m == o
	}
	if !m.Main.Equal(o.Main) {
		return false
	}
	if len(m.entries) != len(o.entries) {
		return false
	}
	for name, attrs := range m.entries {
		oattrs, ok := o.entries[name]
		if !ok || !attrs.Equal(oattrs) {
			return false
		}
	}
	return true
}

// ParseManifest reads UTF-8 manifest text. The leading run of attribute
// lines (with continuations) up to a blank line becomes the main section;
// each following section must open with a "Name: " line, whose immediate
// continuation lines extend the entry name itself, a quirk of the format
// that round-trips through serialization.
//
// A duplicate attribute name within one section keeps the first value and
// records a diagnostic on the returned document.
func ParseManifest(data []byte) (*Manifest, error) {
	m := NewManifest()
	lines := strings.Split(string(data), "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		// a final newline leaves one empty element behind
		lines = lines[:n-1]
	}

	pos, terminated, err := parseAttributeLines(lines, 0, m.Main, m, "main section")
	if err != nil {
		return nil, err
	}
	if !terminated {
		return nil, fmt.Errorf("%w: unterminated main section", ErrInvalidManifestFormat)
	}

	for pos < len(lines) {
		if lines[pos] == "" {
			pos++
			continue
		}
		line := lines[pos]
		if len(line) < 6 || !strings.EqualFold(line[:6], "Name: ") {
			return nil, fmt.Errorf("%w: expected Name attribute, got %q", ErrInvalidManifestFormat, line)
		}
		name := line[6:]
		pos++
		for pos < len(lines) && strings.HasPrefix(lines[pos], " ") {
			name += lines[pos][1:]
			pos++
		}
		attrs := NewAttributes()
		pos, terminated, err = parseAttributeLines(lines, pos, attrs, m, "entry "+name)
		if err != nil {
			return nil, err
		}
		if !terminated {
			return nil, fmt.Errorf("%w: unterminated section for entry %q", ErrInvalidManifestFormat, name)
		}
		m.SetEntry(name, attrs)
	}
	return m, nil
}

// parseAttributeLines consumes "Key: value" lines (merging continuations)
// into attrs until the blank line terminating the section. It returns the
// position after the terminator and whether the terminator was seen before
// the input ran out.
func parseAttributeLines(lines []string, pos int, attrs *Attributes, m *Manifest, section string) (int, bool, error) {
	for pos < len(lines) {
		line := lines[pos]
		if line == "" {
			return pos + 1, true, nil
		}
		if strings.HasPrefix(line, " ") {
			return 0, false, fmt.Errorf("%w: continuation line with no preceding attribute in %s", ErrInvalidManifestFormat, section)
		}
		pos++
		for pos < len(lines) && strings.HasPrefix(lines[pos], " ") {
			line += lines[pos][1:]
			pos++
		}
		idx := strings.Index(line, ": ")
		if idx < 0 {
			return 0, false, fmt.Errorf("%w: malformed attribute %q in %s", ErrInvalidManifestFormat, line, section)
		}
		key, value := line[:idx], line[idx+2:]
		if _, dup := attrs.Get(key); dup {
			m.Diagnostics = append(m.Diagnostics,
				fmt.Sprintf("duplicate attribute %q in %s, keeping first value", key, section))
			continue
		}
		if err := attrs.Set(key, value); err != nil {
			return 0, false, err
		}
	}
	return pos, false, nil
}
