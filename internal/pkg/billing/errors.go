package billing

import "errors"

var (
	ErrPlanNotFound                 = errors.New("plan not found")
	ErrAccountNotFound              = errors.New("account not found")
	ErrAliasNotFound                = errors.New("alias not found")
	ErrPaymentSettingsNotConfigured = errors.New("payment settings not configured")
	ErrInvalidAlias                 = errors.New("invalid alias")
	ErrUnderpaid                    = errors.New("amount below plan price")
	ErrInvalidTransaction           = errors.New("invalid transaction")
	ErrAliasUnavailable             = errors.New("could not allocate a unique alias")
)

// IsNotFound reports whether err is one of the not-found errors of this package.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAliasNotFound) ||
		errors.Is(err, ErrPaymentSettingsNotConfigured)
}
