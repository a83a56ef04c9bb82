package jarsign

import (
	"fmt"

	"go.mozilla.org/pkcs7"
)

// SignatureBlock wraps content in a detached PKCS#7 SignedData structure,
// identifying the signer by issuer and serial number. The content itself is
// not embedded; a verifier supplies the signed bytes separately.
func SignatureBlock(content []byte, identity *SigningIdentity) ([]byte, error) {
	signed, err := pkcs7.NewSignedData(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	signed.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA1)
	if err := signed.AddSigner(identity.Certificate, identity.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	signed.Detach()
	block, err := signed.Finish()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return block, nil
}
