// Package main provides the macsign CLI tool for signing macOS app bundles.
//
// For the library API, see the macsign subpackage:
//
//	import "github.com/macdist/macsign/pkg/macsign"
//
// # Installation
//
// Install the CLI:
//
//	go install github.com/macdist/macsign@latest
package main
