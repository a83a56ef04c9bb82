package jarsign

import (
	"bytes"
	"fmt"
)

// wholeFileMessage opens the archive comment so tools that display it show
// something sensible ahead of the binary signature.
const wholeFileMessage = "signed by SignApk"

// End-of-central-directory record signature and minimum record size.
var eocdMagic = []byte{0x50, 0x4b, 0x05, 0x06}

const eocdLen = 22

// SignWholeFile embeds a signature over zipData inside the archive's trailer
// comment. The signed region is every byte except the final two (the
// comment-length field), so a verifier can check the raw file bytes without
// walking the central directory. zipData must end in a comment-less EOCD
// record; a pre-existing comment would corrupt the offset arithmetic.
func SignWholeFile(zipData []byte, identity *SigningIdentity) ([]byte, error) {
	if len(zipData) < eocdLen || !bytes.Equal(zipData[len(zipData)-eocdLen:len(zipData)-eocdLen+4], eocdMagic) {
		return nil, ErrUnexpectedArchiveComment
	}
	signedRegion := zipData[:len(zipData)-2]

	block, err := SignatureBlock(signedRegion, identity)
	if err != nil {
		return nil, err
	}
	comment, err := buildSignatureComment(block)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(signedRegion)+2+len(comment))
	out = append(out, signedRegion...)
	out = append(out, byte(len(comment)), byte(len(comment)>>8))
	out = append(out, comment...)
	return out, nil
}

// buildSignatureComment assembles the archive comment: the readable marker
// and a NUL, the signature block, a little-endian offset from the end of the
// comment back to the start of the block, the FF FF sentinel, and the total
// comment length. In a comment-less zip, bytes [-6:-2] hold the central
// directory offset; for its two high bytes to be FF FF the archive would
// have to be nearly 4 GiB, so the sentinel distinguishes this layout from a
// legacy trailer.
func buildSignatureComment(block []byte) ([]byte, error) {
	total := len(wholeFileMessage) + 1 + len(block) + 6
	if total > 0xffff {
		return nil, fmt.Errorf("%w: %d bytes", ErrSignatureTooLarge, total)
	}
	signatureStart := total - len(wholeFileMessage) - 1

	comment := make([]byte, 0, total)
	comment = append(comment, wholeFileMessage...)
	comment = append(comment, 0)
	comment = append(comment, block...)
	comment = append(comment,
		byte(signatureStart), byte(signatureStart>>8),
		0xff, 0xff,
		byte(total), byte(total>>8))

	// A verifier hunting for the last EOCD marker in the file must never
	// find one inside the comment, or bytes in the signature could pose as
	// a fake trailer.
	if idx := bytes.Index(comment, eocdMagic); idx >= 0 {
		return nil, fmt.Errorf("%w: found at offset %d", ErrSpuriousEOCDMarker, idx)
	}
	return comment, nil
}
