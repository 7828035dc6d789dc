package validation

import (
	"strconv"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
)

// MaxID is the largest representable person or relation ID. The storage
// columns are signed 32-bit; the bound is propagated here so an
// out-of-range ID fails validation instead of the database round-trip.
const MaxID = 2147483647

// ParseID parses a caller-supplied identifier. It fails with
// apperrors.ErrInvalidID when the value is not an integer, not positive, or
// exceeds the storage column bound.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.ErrInvalidID
	}
	if id <= 0 || id > MaxID {
		return 0, apperrors.ErrInvalidID
	}
	return id, nil
}

// ParseIDValue parses an identifier arriving inside a JSON payload, where it
// may be a number or a numeric string.
func ParseIDValue(value any) (int64, error) {
	switch v := value.(type) {
	case string:
		return ParseID(v)
	case float64:
		if v != float64(int64(v)) {
			return 0, apperrors.ErrInvalidID
		}
		return ParseID(strconv.FormatInt(int64(v), 10))
	default:
		return 0, apperrors.ErrInvalidID
	}
}
