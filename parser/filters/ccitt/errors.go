package ccitt

import "errors"

// Error taxonomy for the CCITT core, per spec §7 "CCITT" kind group.
var (
	ErrInvalidParams         = errors.New("ccitt: invalid parameters")
	ErrBadHorizontalCode     = errors.New("ccitt: bad horizontal run code")
	ErrBadModeCode           = errors.New("ccitt: bad 2D mode code")
	ErrBadLine               = errors.New("ccitt: row decoded to the wrong length")
	ErrUnexpectedEOF         = errors.New("ccitt: unexpected end of input")
	ErrUnsupportedExtension  = errors.New("ccitt: unsupported 2D extension code")
	ErrDecodeFailed          = errors.New("ccitt: decode failed")
)
