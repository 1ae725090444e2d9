package mocks

import (
	context "context"
	models "fjacquet/camt-recon/internal/models"
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockPaymentSource is a mock of PaymentSource interface.
type MockPaymentSource struct {
	ctrl     *gomock.Controller
	recorder *MockPaymentSourceMockRecorder
}

// MockPaymentSourceMockRecorder is the mock recorder for MockPaymentSource.
type MockPaymentSourceMockRecorder struct {
	mock *MockPaymentSource
}

// NewMockPaymentSource creates a new mock instance.
func NewMockPaymentSource(ctrl *gomock.Controller) *MockPaymentSource {
	mock := &MockPaymentSource{ctrl: ctrl}
	mock.recorder = &MockPaymentSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPaymentSource) EXPECT() *MockPaymentSourceMockRecorder {
	return m.recorder
}

// GetPayment mocks base method.
func (m *MockPaymentSource) GetPayment(arg0 context.Context, arg1 string) (*models.Payment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetPayment", arg0, arg1)
	ret0, _ := ret[0].(*models.Payment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetPayment indicates an expected call of GetPayment.
func (mr *MockPaymentSourceMockRecorder) GetPayment(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetPayment", reflect.TypeOf((*MockPaymentSource)(nil).GetPayment), arg0, arg1)
}

// PendingPayments mocks base method.
func (m *MockPaymentSource) PendingPayments(arg0 context.Context, arg1 models.Period) ([]models.Payment, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PendingPayments", arg0, arg1)
	ret0, _ := ret[0].([]models.Payment)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// PendingPayments indicates an expected call of PendingPayments.
func (mr *MockPaymentSourceMockRecorder) PendingPayments(arg0, arg1 interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PendingPayments", reflect.TypeOf((*MockPaymentSource)(nil).PendingPayments), arg0, arg1)
}
