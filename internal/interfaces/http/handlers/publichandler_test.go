package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plandto "github.com/orris-inc/lnsubs/internal/application/plan/dto"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
	"github.com/orris-inc/lnsubs/internal/interfaces/http/handlers/testutil"
	"github.com/orris-inc/lnsubs/internal/shared/errors"
)

func TestPublicHandler_Subscribe_Success(t *testing.T) {
	mockUC := &mockPublicSubscribeUC{result: &subusecases.PublicSubscribeResult{
		SubscriptionID: "sub_abc123def456",
		Status:         "active",
		PaymentRequest: "lnbcrt10u1fake",
		Amount:         1000,
	}}
	handler := NewPublicHandler(mockUC, nil, nil, testutil.NewMockLogger())

	name := "Ada"
	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/public/subscribe/plan_abc123def456",
		SubscriberRequest{SubscriberName: &name})
	testutil.SetURLParam(c, "plan_id", "plan_abc123def456")

	handler.Subscribe(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "plan_abc123def456", mockUC.got.PlanID)
	require.NotNil(t, mockUC.got.Subscriber.Name)
	assert.Equal(t, "Ada", *mockUC.got.Subscriber.Name)
	assert.Contains(t, w.Body.String(), "lnbcrt10u1fake")
}

func TestPublicHandler_Subscribe_InvalidPlanID(t *testing.T) {
	mockUC := &mockPublicSubscribeUC{}
	handler := NewPublicHandler(mockUC, nil, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/public/subscribe/x", SubscriberRequest{})
	testutil.SetURLParam(c, "plan_id", "x")

	handler.Subscribe(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockUC.called)
}

func TestPublicHandler_Subscribe_ProviderDown(t *testing.T) {
	mockUC := &mockPublicSubscribeUC{err: errors.NewTransientError("invoice backend unavailable", "dial tcp: refused")}
	handler := NewPublicHandler(mockUC, nil, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodPost, "/api/v1/public/subscribe/plan_abc123def456", SubscriberRequest{})
	testutil.SetURLParam(c, "plan_id", "plan_abc123def456")

	handler.Subscribe(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestPublicHandler_GetPlan(t *testing.T) {
	slots := 3
	mockUC := &mockGetPublicPlanUC{result: &plandto.PublicPlanDTO{
		ID:             "plan_abc123def456",
		Name:           "Monthly Support",
		AvailableSlots: &slots,
	}}
	handler := NewPublicHandler(nil, mockUC, nil, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/public/plans/plan_abc123def456", nil)
	testutil.SetURLParam(c, "plan_id", "plan_abc123def456")

	handler.GetPlan(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available_slots":3`)
}

func TestPublicHandler_GetInvoiceQR(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nfake")
	handler := NewPublicHandler(nil, nil, &mockGetInvoiceQRUC{result: png}, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/public/payments/pay_abc123def456/qr", nil)
	testutil.SetURLParam(c, "id", "pay_abc123def456")

	handler.GetInvoiceQR(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())
}

func TestPublicHandler_GetInvoiceQR_NotFound(t *testing.T) {
	handler := NewPublicHandler(nil, nil, &mockGetInvoiceQRUC{err: errors.NewNotFoundError("payment not found")}, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/public/payments/pay_missing00/qr", nil)
	testutil.SetURLParam(c, "id", "pay_missing00")

	handler.GetInvoiceQR(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
