package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tendant/edu-content/pkg/educontent"
)

// ParsePage converts raw limit and offset query values into a page in one pass.
// Empty values take the defaults; anything non-numeric or negative is rejected.
// A limit too large to represent is clamped like any other oversized limit.
func ParsePage(limitRaw, offsetRaw string, l Limits) (educontent.Page, error) {
	limit, err := parseNonNegative("limit", limitRaw)
	if errors.Is(err, strconv.ErrRange) {
		limit, err = l.Max, nil
	}
	if err != nil {
		return educontent.Page{}, err
	}
	offset, err := parseNonNegative("offset", offsetRaw)
	if err != nil {
		return educontent.Page{}, err
	}
	return educontent.Page{Limit: ClampLimit(limit, l), Offset: offset}, nil
}

func parseNonNegative(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			if strings.HasPrefix(raw, "-") {
				return 0, fmt.Errorf("%w: %s must not be negative, got %s", educontent.ErrInvalidParameter, name, raw)
			}
			return 0, fmt.Errorf("%w: %s %s out of range: %w", educontent.ErrInvalidParameter, name, raw, strconv.ErrRange)
		}
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", educontent.ErrInvalidParameter, name, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative, got %d", educontent.ErrInvalidParameter, name, n)
	}
	return n, nil
}
