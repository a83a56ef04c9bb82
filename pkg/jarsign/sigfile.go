package jarsign

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
)

// GenerateSignatureFile builds the CERT.SF bytes for a manifest. The main
// section carries a digest of the entire serialized manifest; each entry
// section carries a digest of the exact stanza bytes that entry serializes
// to in the manifest, folding included, so a verifier can re-derive them
// from MANIFEST.MF without reparsing.
func GenerateSignatureFile(manifest *Manifest) ([]byte, error) {
	sf := NewManifest()
	sf.Main.Set("Signature-Version", "1.0")
	sf.Main.Set("Created-By", createdByMarker)

	whole := sha1.New()
	if err := manifest.Write(whole); err != nil {
		return nil, err
	}
	sf.Main.Set("SHA1-Digest-Manifest", base64.StdEncoding.EncodeToString(whole.Sum(nil)))

	for _, name := range manifest.EntryNames() {
		attrs, _ := manifest.Entry(name)
		stanza := sha1.New()
		if err := writeEntryStanza(stanza, name, attrs); err != nil {
			return nil, err
		}
		entry := NewAttributes()
		entry.Set("SHA1-Digest", base64.StdEncoding.EncodeToString(stanza.Sum(nil)))
		sf.SetEntry(name, entry)
	}

	var buf bytes.Buffer
	if err := sf.Write(&buf); err != nil {
		return nil, err
	}
	return applyLengthWorkaround(buf.Bytes()), nil
}

// applyLengthWorkaround appends one extra CRLF when the serialized signature
// file is an exact multiple of 1024 bytes. Some verifiers misparse signature
// files at that boundary.
func applyLengthWorkaround(b []byte) []byte {
	if len(b) > 0 && len(b)%1024 == 0 {
		return append(b, '\r', '\n')
	}
	return b
}
