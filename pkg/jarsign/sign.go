package jarsign

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"time"
)

// SignOptions configures a signing operation.
type SignOptions struct {
	// WholeFile additionally embeds a signature over the serialized output
	// archive in its trailer comment, and embeds the signing certificate as
	// META-INF/com/android/otacert. Used for OTA update packages.
	WholeFile bool

	// Diagnostic, when non-nil, receives non-fatal parser diagnostics such
	// as duplicate attribute names in the input manifest.
	Diagnostic func(string)
}

// Sign re-signs a JAR/APK archive and returns the signed archive bytes.
//
// Content entries are copied in sorted name order with a fixed modification
// time derived from the certificate, preserving STORED entries as stored and
// recompressing the rest at maximum effort. The output carries a fresh
// META-INF/MANIFEST.MF, CERT.SF, and CERT.RSA; any signature files of a
// previous signer are dropped.
func Sign(input []byte, identity *SigningIdentity, opts SignOptions) ([]byte, error) {
	in, err := zip.NewReader(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return nil, fmt.Errorf("failed to open input archive: %w", err)
	}

	existing, err := readExistingManifest(in, opts.Diagnostic)
	if err != nil {
		return nil, err
	}
	manifest, err := BuildDigestManifest(existing, in)
	if err != nil {
		return nil, err
	}

	timestamp := identity.EntryTimestamp()

	var buf bytes.Buffer
	out := zip.NewWriter(&buf)
	out.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	if err := copyEntries(out, in, manifest, timestamp); err != nil {
		return nil, err
	}
	if opts.WholeFile {
		if err := addOtaCert(out, identity, timestamp, manifest); err != nil {
			return nil, err
		}
	}

	var manifestBytes bytes.Buffer
	if err := manifest.Write(&manifestBytes); err != nil {
		return nil, err
	}
	if err := writeEntry(out, manifestName, manifestBytes.Bytes(), timestamp); err != nil {
		return nil, err
	}

	sigFile, err := GenerateSignatureFile(manifest)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(out, certSFName, sigFile, timestamp); err != nil {
		return nil, err
	}

	block, err := SignatureBlock(sigFile, identity)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(out, certRSAName, block, timestamp); err != nil {
		return nil, err
	}

	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize output archive: %w", err)
	}

	if opts.WholeFile {
		return SignWholeFile(buf.Bytes(), identity)
	}
	return buf.Bytes(), nil
}

func readExistingManifest(in *zip.Reader, diagnostic func(string)) (*Manifest, error) {
	for _, f := range in.File {
		if f.Name != manifestName {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", manifestName, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", manifestName, err)
		}
		m, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", manifestName, err)
		}
		if diagnostic != nil {
			for _, d := range m.Diagnostics {
				diagnostic(d)
			}
		}
		return m, nil
	}
	return nil, nil
}

// copyEntries writes every manifest-listed entry from the input archive in
// sorted name order, stamped with the fixed timestamp. STORED entries keep
// their method; everything else is recompressed so the declared length is
// recomputed.
func copyEntries(out *zip.Writer, in *zip.Reader, manifest *Manifest, timestamp time.Time) error {
	byName := make(map[string]*zip.File, len(in.File))
	for _, f := range in.File {
		byName[f.Name] = f
	}
	names := manifest.EntryNames()
	sort.Strings(names)
	for _, name := range names {
		f := byName[name]
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: timestamp}
		if f.Method == zip.Store {
			hdr.Method = zip.Store
		}
		w, err := out.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", name, err)
		}
		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		_, err = io.Copy(w, r)
		r.Close()
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}
	return nil
}

// addOtaCert embeds the raw signing certificate so recovery can verify the
// package offline. It is digested and listed in the manifest like any other
// entry.
func addOtaCert(out *zip.Writer, identity *SigningIdentity, timestamp time.Time, manifest *Manifest) error {
	if err := writeEntry(out, otacertName, identity.Certificate.Raw, timestamp); err != nil {
		return err
	}
	sum := sha1.Sum(identity.Certificate.Raw)
	attrs := NewAttributes()
	attrs.Set("SHA1-Digest", base64.StdEncoding.EncodeToString(sum[:]))
	manifest.SetEntry(otacertName, attrs)
	return nil
}

func writeEntry(out *zip.Writer, name string, data []byte, timestamp time.Time) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: timestamp}
	w, err := out.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
