package mocks

import "github.com/stretchr/testify/mock"

// Authorizer is a testify mock of pop3sf.Authorizer, hand-written in the
// shape mockery would generate.
type Authorizer struct {
	mock.Mock
}

func (m *Authorizer) UserPass(user, pass string) error {
	args := m.Called(user, pass)
	return args.Error(0)
}

func (m *Authorizer) Apop(user, timestampBanner, digest string) error {
	args := m.Called(user, timestampBanner, digest)
	return args.Error(0)
}

// NewAuthorizer constructs an Authorizer mock and registers t.Cleanup to
// assert every expectation was met.
func NewAuthorizer(t mockConstructorT) *Authorizer {
	m := &Authorizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
