package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/docopt/docopt-go"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/macdist/macsign/pkg/macsign"
)

const version = "1.0.0"

const usage = `macsign - macOS App Bundle Signing Tool

A command-line tool for signing .app bundles and their nested components for
desktop distribution (Developer ID) or Mac App Store submission, and for
verifying the result. Cryptographic signing is delegated to the system
codesign tool and the keychain.

Usage:
  macsign sign --app=<path> [--platform=<platform>] [--type=<type>] [--identity=<name>] [--p12=<path>] [--p12-password=<password>] [--entitlements=<path>] [--entitlements-inherit=<path>] [--default-entitlements] [--profile=<path>] [--ignore=<pattern>] [--binary=<path>]... [--keychain=<path>] [--requirements=<value>] [--no-embed-profile] [--no-auto-entitlements] [--app-version=<version>] [--verbose]
  macsign identities [--keychain=<path>]
  macsign verify --app=<path> [--platform=<platform>] [--verbose]
  macsign -h | --help
  macsign --version

Commands:
  sign        Sign an app bundle and verify the finished signature
  identities  List the code-signing identities the keychain reports
  verify      Verify an already signed app bundle without re-signing it

Options:
  --app=<path>                  Path to the .app bundle
  --platform=<platform>         Distribution target: darwin or mas [default: darwin]
  --type=<type>                 Certificate type: development or distribution
  --identity=<name>             Signing identity name (or MACSIGN_IDENTITY env var)
  --p12=<path>                  Derive the identity name from a P12 certificate
                                file (or MACSIGN_P12 env var)
  --p12-password=<password>     Password for the P12 file (or MACSIGN_P12_PASSWORD)
  --entitlements=<path>         Entitlements plist for the root bundle
  --entitlements-inherit=<path> Entitlements plist for nested components
  --default-entitlements        Use the bundled entitlements template for the platform
  --profile=<path>              Provisioning profile to embed into the bundle
  --ignore=<pattern>            Skip child paths containing this substring
  --binary=<path>               Extra binary to sign alongside the bundle contents
                                (repeatable)
  --keychain=<path>             Keychain to pass through to codesign
  --requirements=<value>        Signing requirements to pass through to codesign
  --no-embed-profile            Skip the provisioning-profile embed stage
  --no-auto-entitlements        Skip the automatic entitlements augmentation stage
  --app-version=<version>       Target app runtime version, gates entitlement
                                augmentation (older than 1.1.1 skips it)
  --verbose                     Debug-level logging
  -h --help                     Show this help message
  --version                     Show version

Environment Variables:
  MACSIGN_IDENTITY      Signing identity name (overridden by --identity)
  MACSIGN_P12           Path to P12 certificate file (overridden by --p12)
  MACSIGN_P12_PASSWORD  P12 certificate password (overridden by --p12-password)

Examples:
  # Sign for distribution outside the App Store, resolving the identity
  # from the keychain
  macsign sign --app=MyApp.app

  # Sign for the Mac App Store with a provisioning profile
  macsign sign --app=MyApp.app --platform=mas --profile=MyApp.provisionprofile

  # Sign with an explicit identity and custom entitlements
  macsign sign --app=MyApp.app --identity="Developer ID Application: Example Corp" --entitlements=MyApp.entitlements

  # Skip helper bundles shipped pre-signed by a vendor
  macsign sign --app=MyApp.app --ignore=Vendored.framework

  # List available identities
  macsign identities

  # Verify a bundle signed elsewhere
  macsign verify --app=MyApp.app
`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	if sign, _ := opts.Bool("sign"); sign {
		if err := runSign(opts); err != nil {
			color.Red("Error: %v", err)
			os.Exit(1)
		}
	} else if identities, _ := opts.Bool("identities"); identities {
		if err := runIdentities(opts); err != nil {
			color.Red("Error: %v", err)
			os.Exit(1)
		}
	} else if verify, _ := opts.Bool("verify"); verify {
		if err := runVerify(opts); err != nil {
			color.Red("Error: %v", err)
			os.Exit(1)
		}
	}
}

func newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "macsign",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runSign(opts docopt.Opts) error {
	appPath, _ := opts.String("--app")
	platform, _ := opts.String("--platform")
	signingType, _ := opts.String("--type")
	identity, _ := opts.String("--identity")
	p12Path, _ := opts.String("--p12")
	p12Password, _ := opts.String("--p12-password")
	entitlements, _ := opts.String("--entitlements")
	entitlementsInherit, _ := opts.String("--entitlements-inherit")
	defaultEntitlements, _ := opts.Bool("--default-entitlements")
	profilePath, _ := opts.String("--profile")
	ignore, _ := opts.String("--ignore")
	keychain, _ := opts.String("--keychain")
	requirements, _ := opts.String("--requirements")
	noEmbedProfile, _ := opts.Bool("--no-embed-profile")
	noAutoEntitlements, _ := opts.Bool("--no-auto-entitlements")
	appVersion, _ := opts.String("--app-version")
	verbose, _ := opts.Bool("--verbose")

	// Get values from environment if not provided via flags
	if identity == "" {
		identity = os.Getenv("MACSIGN_IDENTITY")
	}
	if p12Path == "" {
		p12Path = os.Getenv("MACSIGN_P12")
	}
	if p12Password == "" {
		p12Password = os.Getenv("MACSIGN_P12_PASSWORD")
	}

	// A P12 file supplies the identity name when none was given explicitly.
	if identity == "" && p12Path != "" {
		var err error
		identity, err = macsign.IdentityFromP12(p12Path, p12Password)
		if err != nil {
			return err
		}
	}

	var rootEntitlements macsign.EntitlementsFile
	switch {
	case entitlements != "":
		rootEntitlements = macsign.EntitlementsPath(entitlements)
	case defaultEntitlements:
		rootEntitlements = macsign.DefaultEntitlements()
	}
	var inheritEntitlements macsign.EntitlementsFile
	if entitlementsInherit != "" {
		inheritEntitlements = macsign.EntitlementsPath(entitlementsInherit)
	}

	var ignoreRule macsign.IgnoreRule
	if ignore != "" {
		ignoreRule = macsign.IgnorePattern(ignore)
	}

	var extraBinaries []string
	if v, ok := opts["--binary"].([]string); ok {
		extraBinaries = v
	}

	signOpts := &macsign.Options{
		BundlePath:                   appPath,
		Platform:                     macsign.Platform(platform),
		SigningType:                  macsign.SigningType(signingType),
		Identity:                     identity,
		Entitlements:                 rootEntitlements,
		EntitlementsInherit:          inheritEntitlements,
		ProvisioningProfilePath:      profilePath,
		Ignore:                       ignoreRule,
		ExtraBinaries:                extraBinaries,
		Keychain:                     keychain,
		Requirements:                 requirements,
		SkipEmbedProvisioningProfile: noEmbedProfile,
		SkipAutoEntitlements:         noAutoEntitlements,
		TargetAppVersion:             appVersion,
		Logger:                       newLogger(verbose),
	}

	if err := macsign.Sign(context.Background(), signOpts); err != nil {
		return err
	}

	color.Green("Successfully signed and verified %s", appPath)
	return nil
}

func runIdentities(opts docopt.Opts) error {
	keychain, _ := opts.String("--keychain")

	identities, err := macsign.ListIdentities(context.Background(), keychain)
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		fmt.Println("No code-signing identities found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Identity"})
	for i, identity := range identities {
		table.Append([]string{fmt.Sprintf("%d", i+1), identity})
	}
	table.Render()
	return nil
}

func runVerify(opts docopt.Opts) error {
	appPath, _ := opts.String("--app")
	platform, _ := opts.String("--platform")
	verbose, _ := opts.Bool("--verbose")

	verifyOpts := &macsign.Options{
		BundlePath: appPath,
		Platform:   macsign.Platform(platform),
		Logger:     newLogger(verbose),
	}
	if err := macsign.Verify(context.Background(), verifyOpts); err != nil {
		return err
	}

	color.Green("Signature of %s is valid", appPath)
	return nil
}
