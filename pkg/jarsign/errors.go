package jarsign

import "errors"

// Every error below aborts the signing operation that raised it; none are
// retried internally. Callers match them with errors.Is.
var (
	// ErrInvalidAttributeName indicates a manifest attribute name that is
	// empty, longer than 70 bytes, or contains a character outside
	// [A-Za-z0-9_-].
	ErrInvalidAttributeName = errors.New("invalid manifest attribute name")

	// ErrInvalidManifestFormat indicates malformed manifest text: a missing
	// "Name:" prefix, a misplaced continuation line, or a line that is not
	// a "Key: value" pair.
	ErrInvalidManifestFormat = errors.New("invalid manifest format")

	// ErrMissingEntry indicates the input manifest references an entry that
	// is no longer present in the archive.
	ErrMissingEntry = errors.New("manifest references missing archive entry")

	// ErrSigningFailed wraps a failure from the PKCS#7 signer.
	ErrSigningFailed = errors.New("signing failed")

	// ErrUnexpectedArchiveComment indicates the archive to be whole-file
	// signed already carries a trailer comment.
	ErrUnexpectedArchiveComment = errors.New("archive already has a trailer comment")

	// ErrSignatureTooLarge indicates the assembled signature comment would
	// exceed the 16-bit ZIP comment length limit.
	ErrSignatureTooLarge = errors.New("signature too large for ZIP file comment")

	// ErrSpuriousEOCDMarker indicates the assembled signature comment would
	// itself contain an end-of-central-directory marker, which a lenient
	// verifier could mistake for the archive trailer.
	ErrSpuriousEOCDMarker = errors.New("spurious EOCD marker inside signature comment")
)
