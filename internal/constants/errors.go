package constants

import "errors"

// CLI configuration errors.
var (
	ErrConfigDirUnavailable = errors.New("could not determine configuration directory")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrUnsupportedOutput    = errors.New("unsupported output format")
)

// Required argument errors.
var (
	ErrJobFileRequired    = errors.New("--file flag is required")
	ErrAddressRequired    = errors.New("at least one server address is required")
	ErrPolicyRequired     = errors.New("--policy flag is required")
	ErrDrainFlagsConflict = errors.New("--enable and --disable are mutually exclusive")
	ErrDrainFlagRequired  = errors.New("one of --enable or --disable is required")
)

// Token input errors.
var (
	ErrTokenNotTerminal = errors.New("--ask-token requires an interactive terminal")
	ErrEmptyToken       = errors.New("empty token entered")
)
