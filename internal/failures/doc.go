// Package failures defines the error taxonomy shared by the extraction
// pipeline, the blacklist stores, and the CLI.
//
// Every failure is tagged with one of the sentinel markers so callers can
// branch with errors.Is instead of matching strings:
//   - ErrMalformedInput: empty or undecodable document text
//   - ErrNoRuleSet: distributor label did not resolve (non-fatal)
//   - ErrValidationRejection: candidate dropped by a validator (never surfaced)
//   - ErrBlacklistPersistence: state artifact could not be read or written
//   - ErrConfiguration: invalid configuration or rules file
package failures
