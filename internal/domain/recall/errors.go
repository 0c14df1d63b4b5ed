package recall

import "errors"

var (
	ErrUnknownSource = errors.New("unknown recall source")

	ErrMissingRecallNumber = errors.New("record has no recall number")
	ErrNotEnglish          = errors.New("record is not in English")
	ErrMalformedRecord     = errors.New("record is not a JSON object")
)

// IsSkip reports whether err means the record is intentionally left out of the store
// rather than failed.
func IsSkip(err error) bool {
	return errors.Is(err, ErrMissingRecallNumber) || errors.Is(err, ErrNotEnglish)
}
