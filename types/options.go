package types

// CargoOptions is pass-through configuration applied verbatim to a built test
// command. The runner does not interpret it.
type CargoOptions struct {
	// ExtraArgs are appended to the cargo invocation after the
	// manifest-path flag, before any backend-specific suffix.
	ExtraArgs []string

	// ExtraTestBinaryArgs are placed after the `--` separator so they reach
	// the test binary rather than the driver. Only meaningful for the
	// cargo-test backend.
	ExtraTestBinaryArgs []string
}

// ApplyTo appends the pass-through driver arguments to args and returns the
// extended slice.
func (o CargoOptions) ApplyTo(args []string) []string {
	return append(args, o.ExtraArgs...)
}
