// Package exitcodes defines the standard exit codes used by cargo-acceptor.
package exitcodes

// Exit code constants used by cargo-acceptor:
//
// * Success (0): Used when all tests pass
// * TestFailure (1): Used when one or more tests fail
// * RuntimeErr (2): Used for runtime errors such as bad configuration or
//   a test tool that could not be spawned
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
