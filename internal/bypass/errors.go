package bypass

import "github.com/kasard/thermactl/internal/errors"

const (
	ErrInvalidLimit = errors.ErrorCode("bypass_invalid_limit")
)
