// Package main provides the signapk CLI tool for JAR/APK signing.
//
// For the library API, see the jarsign subpackage:
//
//	import "github.com/sebmarkbage/signapk/pkg/jarsign"
//
// # Installation
//
// Install the CLI:
//
//	go install github.com/sebmarkbage/signapk@latest
package main
