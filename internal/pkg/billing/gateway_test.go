package billing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PlanPay/app/models"
)

func TestBuildQRImageURL(t *testing.T) {
	settings := &models.PaymentSettings{BankID: "MB", AccountID: "0123456789", AccountName: "NGUYEN VAN A"}

	got := BuildQRImageURL(GatewayConfig{}, settings, 199000, "plan12345678")

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "img.vietqr.io", u.Host)
	assert.Equal(t, "/image/MB-0123456789-compact2.png", u.Path)
	assert.Equal(t, "199000", u.Query().Get("amount"))
	assert.Equal(t, "plan12345678", u.Query().Get("addInfo"))
	assert.Equal(t, "NGUYEN VAN A", u.Query().Get("accountName"))
}

func TestBuildQRImageURL_CustomGateway(t *testing.T) {
	settings := &models.PaymentSettings{BankID: "VCB", AccountID: "99"}
	cfg := GatewayConfig{BaseURL: "https://qr.example.test/img", Template: "print"}

	got := BuildQRImageURL(cfg, settings, 5, "plan00000001")

	assert.Contains(t, got, "https://qr.example.test/img/VCB-99-print.png?")
}

func TestGatewayConfigFromEnv(t *testing.T) {
	t.Setenv("PAYMENT_QR_BASE_URL", "https://qr.example.test/base/")
	t.Setenv("PAYMENT_QR_TEMPLATE", "qr_only")

	cfg := GatewayConfigFromEnv()
	assert.Equal(t, "https://qr.example.test/base", cfg.BaseURL)
	assert.Equal(t, "qr_only", cfg.Template)
}
