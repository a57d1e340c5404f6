package service

import (
	"strconv"

	apperrors "github.com/cvboard/admin/internal/errors"
)

// CheckUserID validates a user id before any network call: it must be an integer
// within the 32-bit signed range.
func CheckUserID(id string) (int32, error) {
	return checkID(id, apperrors.KindNotFoundUser)
}

// CheckCvID validates a CV id the same way as CheckUserID.
func CheckCvID(id string) (int32, error) {
	return checkID(id, apperrors.KindNotFoundCv)
}

func checkID(id string, kind apperrors.Kind) (int32, error) {
	n, err := strconv.ParseInt(id, 10, 32)
	if err != nil {
		return 0, apperrors.New(kind, "invalid id "+strconv.Quote(id))
	}
	return int32(n), nil
}
