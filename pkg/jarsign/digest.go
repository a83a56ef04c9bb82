package jarsign

import (
	"archive/zip"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

const (
	manifestName = "META-INF/MANIFEST.MF"
	certSFName   = "META-INF/CERT.SF"
	certRSAName  = "META-INF/CERT.RSA"
	otacertName  = "META-INF/com/android/otacert"

	createdByMarker = "1.0 (Android SignApk)"
)

// Signature artifacts of a previous signer, stripped from the digest set.
// Only files directly under META-INF/ match, and the extension check is
// case-sensitive.
var strippedSignatureRE = regexp.MustCompile(`^META-INF/[^/]+\.(SF|RSA)$`)

// BuildDigestManifest walks the archive and produces a manifest listing the
// SHA-1 digest of every eligible entry's decompressed content.
//
// When the input archive carried a manifest, its main attributes are copied
// and its recorded entry order is preserved; an entry it names that is no
// longer in the archive is an error. Without one, the main attributes are
// seeded with Manifest-Version and Created-By and entries are taken in
// lexicographic name order. The two orderings are deliberately not unified:
// existing signed archives depend on byte-for-byte output compatibility.
func BuildDigestManifest(existing *Manifest, in *zip.Reader) (*Manifest, error) {
	out := NewManifest()
	if existing != nil {
		for _, name := range existing.Main.Names() {
			value, _ := existing.Main.Get(name)
			if err := out.Main.Set(name, value); err != nil {
				return nil, err
			}
		}
	} else {
		out.Main.Set("Manifest-Version", "1.0")
		out.Main.Set("Created-By", createdByMarker)
	}

	byName := make(map[string]*zip.File, len(in.File))
	for _, f := range in.File {
		byName[f.Name] = f
	}

	var ordered []*zip.File
	if existing != nil {
		for _, name := range existing.EntryNames() {
			f, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrMissingEntry, name)
			}
			ordered = append(ordered, f)
		}
	} else {
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ordered = append(ordered, byName[name])
		}
	}

	for _, f := range ordered {
		if skipEntry(f) {
			continue
		}
		sum, err := digestEntry(f)
		if err != nil {
			return nil, err
		}
		var attrs *Attributes
		if existing != nil {
			if prev, ok := existing.Entry(f.Name); ok {
				attrs = prev.Clone()
			}
		}
		if attrs == nil {
			attrs = NewAttributes()
		}
		attrs.Set("SHA1-Digest", base64.StdEncoding.EncodeToString(sum))
		out.SetEntry(f.Name, attrs)
	}
	return out, nil
}

func skipEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return true
	}
	switch f.Name {
	case manifestName, certSFName, certRSAName, otacertName:
		return true
	}
	return strippedSignatureRE.MatchString(f.Name)
}

func digestEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer r.Close()
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("failed to digest %s: %w", f.Name, err)
	}
	return h.Sum(nil), nil
}
