package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lueurxax/scholarfeed/internal/core/errors"
)

// ParseID converts a textual identifier into a row id. Empty, non-numeric
// and non-positive values are rejected rather than defaulted.
func ParseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidID, raw)
	}

	if id <= 0 {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvalidID, raw)
	}

	return id, nil
}
