// Package jarsign signs JAR/APK-style ZIP archives using the classic
// manifest-based (v1) scheme understood by Android's mincrypt verifier.
//
// Signing produces three files under META-INF/: MANIFEST.MF listing a
// SHA1-Digest per archive entry, CERT.SF containing digests of the manifest
// and of each manifest stanza, and CERT.RSA, a detached PKCS#7 signature
// over the CERT.SF bytes.
//
// # Basic Usage
//
// To sign an archive:
//
//	identity, err := jarsign.LoadSigningIdentity(p12Data, password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	signed, err := jarsign.Sign(apkData, identity, jarsign.SignOptions{})
//
// # Whole-file mode
//
// OTA update packages are additionally signed as a whole: the PKCS#7
// signature over the serialized archive is embedded in the ZIP trailer
// comment, so a verifier can check the raw file bytes without walking the
// central directory. Set SignOptions.WholeFile to enable this; the signing
// certificate is also embedded as META-INF/com/android/otacert.
package jarsign
