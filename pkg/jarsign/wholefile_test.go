package jarsign

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"go.mozilla.org/pkcs7"
)

func TestBuildSignatureCommentLayout(t *testing.T) {
	block := bytes.Repeat([]byte{0x30}, 256) // no EOCD magic inside

	comment, err := buildSignatureComment(block)
	if err != nil {
		t.Fatalf("buildSignatureComment failed: %v", err)
	}

	wantTotal := len(wholeFileMessage) + 1 + len(block) + 6
	if len(comment) != wantTotal {
		t.Fatalf("Comment length = %d, want %d", len(comment), wantTotal)
	}
	if string(comment[:len(wholeFileMessage)]) != wholeFileMessage {
		t.Error("Comment does not open with the marker string")
	}
	if comment[len(wholeFileMessage)] != 0 {
		t.Error("Marker string is not NUL-terminated")
	}
	if !bytes.Equal(comment[len(wholeFileMessage)+1:len(comment)-6], block) {
		t.Error("Signature block bytes not embedded verbatim")
	}

	trailer := comment[len(comment)-6:]
	signatureStart := binary.LittleEndian.Uint16(trailer[0:2])
	if int(signatureStart) != len(block)+6 {
		t.Errorf("Signature start = %d, want %d", signatureStart, len(block)+6)
	}
	if trailer[2] != 0xff || trailer[3] != 0xff {
		t.Errorf("Sentinel bytes = % x, want ff ff", trailer[2:4])
	}
	if total := binary.LittleEndian.Uint16(trailer[4:6]); int(total) != wantTotal {
		t.Errorf("Recorded total = %d, want %d", total, wantTotal)
	}
}

func TestBuildSignatureCommentRejectsSpuriousEOCD(t *testing.T) {
	block := append(bytes.Repeat([]byte{0x30}, 16), eocdMagic...)
	if _, err := buildSignatureComment(block); !errors.Is(err, ErrSpuriousEOCDMarker) {
		t.Errorf("Got %v, want ErrSpuriousEOCDMarker", err)
	}
}

func TestBuildSignatureCommentRejectsOversizedBlock(t *testing.T) {
	block := bytes.Repeat([]byte{0x30}, 0x10000)
	if _, err := buildSignatureComment(block); !errors.Is(err, ErrSignatureTooLarge) {
		t.Errorf("Got %v, want ErrSignatureTooLarge", err)
	}
}

func TestSignWholeFileRejectsExistingComment(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if err := w.SetComment("already commented"); err != nil {
		t.Fatalf("SetComment failed: %v", err)
	}
	f, err := w.Create("a.txt")
	if err != nil {
		t.Fatalf("Failed to create entry: %v", err)
	}
	f.Write([]byte("hello"))
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}

	if _, err := SignWholeFile(buf.Bytes(), testIdentity(t)); !errors.Is(err, ErrUnexpectedArchiveComment) {
		t.Errorf("Got %v, want ErrUnexpectedArchiveComment", err)
	}
}

func TestSignWholeFileRejectsTruncatedInput(t *testing.T) {
	if _, err := SignWholeFile([]byte("PK"), testIdentity(t)); !errors.Is(err, ErrUnexpectedArchiveComment) {
		t.Errorf("Got %v, want ErrUnexpectedArchiveComment", err)
	}
}

func TestSignWholeFile(t *testing.T) {
	zipData := buildTestZip(t, []testEntry{
		{name: "a.txt", data: []byte("hello"), stored: true},
	})

	out, err := SignWholeFile(zipData, testIdentity(t))
	if err != nil {
		t.Fatalf("SignWholeFile failed: %v", err)
	}

	signedRegion := zipData[:len(zipData)-2]
	if !bytes.Equal(out[:len(signedRegion)], signedRegion) {
		t.Fatal("Output does not start with the signed region")
	}

	total := int(binary.LittleEndian.Uint16(out[len(signedRegion) : len(signedRegion)+2]))
	comment := out[len(signedRegion)+2:]
	if len(comment) != total {
		t.Fatalf("Comment length field = %d, actual comment is %d bytes", total, len(comment))
	}

	// The patched archive must still open as a zip with the comment intact.
	r, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("Signed archive no longer opens as a zip: %v", err)
	}
	if len(r.File) != 1 || r.File[0].Name != "a.txt" {
		t.Errorf("Signed archive entries changed: %v", r.File)
	}

	block := comment[len(wholeFileMessage)+1 : total-6]
	parsed, err := pkcs7.Parse(block)
	if err != nil {
		t.Fatalf("Failed to parse embedded signature block: %v", err)
	}
	parsed.Content = signedRegion
	if err := parsed.Verify(); err != nil {
		t.Errorf("Failed to verify whole-file signature: %v", err)
	}
}
