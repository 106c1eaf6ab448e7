package handlers

import (
	"context"

	paymentdto "github.com/orris-inc/lnsubs/internal/application/payment/dto"
	paymentusecases "github.com/orris-inc/lnsubs/internal/application/payment/usecases"
	plandto "github.com/orris-inc/lnsubs/internal/application/plan/dto"
	planusecases "github.com/orris-inc/lnsubs/internal/application/plan/usecases"
	subdto "github.com/orris-inc/lnsubs/internal/application/subscription/dto"
	subusecases "github.com/orris-inc/lnsubs/internal/application/subscription/usecases"
)

// =====================================================================
// Plan use cases
// =====================================================================

type mockCreatePlanUC struct {
	result *plandto.PlanDTO
	err    error
	got    planusecases.CreatePlanCommand
}

func (m *mockCreatePlanUC) Execute(ctx context.Context, cmd planusecases.CreatePlanCommand) (*plandto.PlanDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockUpdatePlanUC struct {
	result *plandto.PlanDTO
	err    error
	got    planusecases.UpdatePlanCommand
}

func (m *mockUpdatePlanUC) Execute(ctx context.Context, cmd planusecases.UpdatePlanCommand) (*plandto.PlanDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockGetPlanUC struct {
	result *plandto.PlanDTO
	err    error
	got    planusecases.GetPlanQuery
}

func (m *mockGetPlanUC) Execute(ctx context.Context, query planusecases.GetPlanQuery) (*plandto.PlanDTO, error) {
	m.got = query
	return m.result, m.err
}

type mockListPlansUC struct {
	result []*plandto.PlanDTO
	err    error
	wallet string
}

func (m *mockListPlansUC) Execute(ctx context.Context, wallet string) ([]*plandto.PlanDTO, error) {
	m.wallet = wallet
	return m.result, m.err
}

type mockDeletePlanUC struct {
	err error
	got planusecases.DeletePlanCommand
}

func (m *mockDeletePlanUC) Execute(ctx context.Context, cmd planusecases.DeletePlanCommand) error {
	m.got = cmd
	return m.err
}

type mockListPlanSubscriptionsUC struct {
	result []*subdto.SubscriptionDTO
	err    error
	got    subusecases.ListPlanSubscriptionsQuery
}

func (m *mockListPlanSubscriptionsUC) Execute(ctx context.Context, query subusecases.ListPlanSubscriptionsQuery) ([]*subdto.SubscriptionDTO, error) {
	m.got = query
	return m.result, m.err
}

// =====================================================================
// Subscription use cases
// =====================================================================

type mockCreateSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	got    subusecases.CreateSubscriptionCommand
}

func (m *mockCreateSubscriptionUC) Execute(ctx context.Context, cmd subusecases.CreateSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.got = cmd
	return m.result, m.err
}

type mockGetSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
}

func (m *mockGetSubscriptionUC) Execute(ctx context.Context, query subusecases.GetSubscriptionQuery) (*subdto.SubscriptionDTO, error) {
	return m.result, m.err
}

type mockListSubscriptionsUC struct {
	result []*subdto.SubscriptionDTO
	err    error
}

func (m *mockListSubscriptionsUC) Execute(ctx context.Context, wallet string) ([]*subdto.SubscriptionDTO, error) {
	return m.result, m.err
}

type mockCancelSubscriptionUC struct {
	result *subdto.SubscriptionDTO
	err    error
	got    subusecases.CancelSubscriptionCommand
	called bool
}

func (m *mockCancelSubscriptionUC) Execute(ctx context.Context, cmd subusecases.CancelSubscriptionCommand) (*subdto.SubscriptionDTO, error) {
	m.got = cmd
	m.called = true
	return m.result, m.err
}

type mockListSubscriptionPaymentsUC struct {
	result []*paymentdto.PaymentDTO
	err    error
}

func (m *mockListSubscriptionPaymentsUC) Execute(ctx context.Context, query paymentusecases.ListSubscriptionPaymentsQuery) ([]*paymentdto.PaymentDTO, error) {
	return m.result, m.err
}

// =====================================================================
// Public and callback use cases
// =====================================================================

type mockPublicSubscribeUC struct {
	result *subusecases.PublicSubscribeResult
	err    error
	got    subusecases.PublicSubscribeCommand
	called bool
}

func (m *mockPublicSubscribeUC) Execute(ctx context.Context, cmd subusecases.PublicSubscribeCommand) (*subusecases.PublicSubscribeResult, error) {
	m.got = cmd
	m.called = true
	return m.result, m.err
}

type mockGetPublicPlanUC struct {
	result *plandto.PublicPlanDTO
	err    error
}

func (m *mockGetPublicPlanUC) Execute(ctx context.Context, planID string) (*plandto.PublicPlanDTO, error) {
	return m.result, m.err
}

type mockGetInvoiceQRUC struct {
	result []byte
	err    error
}

func (m *mockGetInvoiceQRUC) Execute(ctx context.Context, paymentID string) ([]byte, error) {
	return m.result, m.err
}

type mockRecordPaymentOutcomeUC struct {
	result *paymentusecases.RecordPaymentOutcomeResult
	err    error
	got    paymentusecases.RecordPaymentOutcomeCommand
}

func (m *mockRecordPaymentOutcomeUC) Execute(ctx context.Context, cmd paymentusecases.RecordPaymentOutcomeCommand) (*paymentusecases.RecordPaymentOutcomeResult, error) {
	m.got = cmd
	return m.result, m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}
