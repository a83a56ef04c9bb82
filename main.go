package main

import (
	"fmt"
	"os"

	"github.com/docopt/docopt-go"

	"github.com/sebmarkbage/signapk/pkg/jarsign"
)

const version = "1.0.0"

const usage = `signapk - JAR/APK Signing Tool

A command-line tool for signing JAR/APK archives with the manifest-based
(v1) scheme accepted by Android's mincrypt verifier, including the
whole-file mode used for OTA update packages.

Usage:
  signapk sign --in=<path> --out=<path> [--p12=<path>] [--password=<password>] [--whole-file]
  signapk -h | --help
  signapk --version

Commands:
  sign      Sign an archive with the given PKCS#12 identity

Options:
  --in=<path>           Path to the input archive
  --out=<path>          Path for the signed output archive
  --p12=<path>          Path to the P12 certificate file (or SIGNAPK_P12 env var)
  --password=<password> Password for the P12 certificate (or SIGNAPK_PASSWORD env var)
  --whole-file          Also embed a whole-file signature in the ZIP trailer
                        comment (OTA package mode)
  -h --help             Show this help message
  --version             Show version

Environment Variables:
  SIGNAPK_P12           Path to P12 certificate file (overridden by --p12)
  SIGNAPK_PASSWORD      P12 certificate password (overridden by --password)

Examples:
  # Sign an APK
  signapk sign --in=app.apk --out=app-signed.apk --p12=cert.p12 --password=secret

  # Sign an OTA update package (whole-file mode)
  signapk sign --in=ota.zip --out=ota-signed.zip --p12=cert.p12 --whole-file

  # Sign using environment variables (useful for CI/CD)
  export SIGNAPK_P12=/path/to/cert.p12
  export SIGNAPK_PASSWORD=secret
  signapk sign --in=app.apk --out=app-signed.apk
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	if sign, _ := opts.Bool("sign"); sign {
		if err := runSign(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func runSign(opts docopt.Opts) error {
	inputPath, _ := opts.String("--in")
	outputPath, _ := opts.String("--out")
	p12Path, _ := opts.String("--p12")
	password, _ := opts.String("--password")
	wholeFile, _ := opts.Bool("--whole-file")

	// Get values from environment if not provided via flags
	if p12Path == "" {
		p12Path = os.Getenv("SIGNAPK_P12")
	}
	if password == "" {
		password = os.Getenv("SIGNAPK_PASSWORD")
	}

	if p12Path == "" {
		return fmt.Errorf("--p12 is required (or set SIGNAPK_P12 environment variable)")
	}

	p12Data, err := os.ReadFile(p12Path)
	if err != nil {
		return fmt.Errorf("failed to read P12 file: %w", err)
	}
	identity, err := jarsign.LoadSigningIdentity(p12Data, password)
	if err != nil {
		return fmt.Errorf("failed to load signing identity: %w", err)
	}

	input, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input archive: %w", err)
	}

	fmt.Printf("Signing archive: %s\n", inputPath)
	fmt.Printf("Using certificate: %s\n", p12Path)
	if wholeFile {
		fmt.Printf("Mode: Whole-file (OTA package)\n")
	}
	fmt.Printf("Output: %s\n", outputPath)

	signed, err := jarsign.Sign(input, identity, jarsign.SignOptions{
		WholeFile: wholeFile,
		Diagnostic: func(msg string) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
		},
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, signed, 0644); err != nil {
		return fmt.Errorf("failed to write output archive: %w", err)
	}

	fmt.Printf("Successfully signed archive: %s\n", outputPath)
	return nil
}
