package billing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuelReschke/PlanPay/app/models"
	"github.com/ManuelReschke/PlanPay/internal/pkg/env"
)

const (
	defaultQRBaseURL  = "https://img.vietqr.io/image"
	defaultQRTemplate = "compact2"
)

// GatewayConfig describes where payment QR images are rendered.
type GatewayConfig struct {
	BaseURL  string
	Template string
}

func GatewayConfigFromEnv() GatewayConfig {
	return GatewayConfig{
		BaseURL:  strings.TrimRight(strings.TrimSpace(env.GetEnv("PAYMENT_QR_BASE_URL", defaultQRBaseURL)), "/"),
		Template: strings.TrimSpace(env.GetEnv("PAYMENT_QR_TEMPLATE", defaultQRTemplate)),
	}
}

// BuildQRImageURL returns the gateway image URL for a transfer of amount to
// the configured bank account with the given description.
func BuildQRImageURL(cfg GatewayConfig, settings *models.PaymentSettings, amount int64, description string) string {
	base := cfg.BaseURL
	if base == "" {
		base = defaultQRBaseURL
	}
	template := cfg.Template
	if template == "" {
		template = defaultQRTemplate
	}

	image := url.PathEscape(settings.BankID) + "-" + url.PathEscape(settings.AccountID) + "-" + url.PathEscape(template) + ".png"

	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("addInfo", description)
	q.Set("accountName", settings.AccountName)

	return base + "/" + image + "?" + q.Encode()
}
