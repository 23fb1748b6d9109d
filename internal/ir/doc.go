// Package ir provides the identifier vocabulary shared by every meshid package.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - An entity's Handle never changes; its Identifier is what gets relabelled
//   - Identifiers are unique per Space (kind + type tag), never globally
//   - Names (groups, fields) are NFC normalised before use
//   - Canonical JSON carries no floats, so fingerprints are stable
package ir
