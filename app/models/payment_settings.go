package models

// PaymentSettings configures the receiving bank account shown on payment QR
// codes and the bearer secret expected on provider webhooks.
type PaymentSettings struct {
	AccessToken string `json:"access_token" validate:"max=255"`
	AccountName string `json:"account_name" validate:"max=255"`
	AccountID   string `json:"account_id" validate:"max=64"`
	BankID      string `json:"bank_id" validate:"max=32"`
}

// PublicPaymentSettings is the view of PaymentSettings safe to expose to end users.
type PublicPaymentSettings struct {
	AccountName string `json:"account_name"`
	AccountID   string `json:"account_id"`
	BankID      string `json:"bank_id"`
}

func (s *PaymentSettings) Public() PublicPaymentSettings {
	return PublicPaymentSettings{
		AccountName: s.AccountName,
		AccountID:   s.AccountID,
		BankID:      s.BankID,
	}
}

// IsGatewayConfigured reports whether enough data is present to build a payment URL.
func (s *PaymentSettings) IsGatewayConfigured() bool {
	return s.BankID != "" && s.AccountID != ""
}
