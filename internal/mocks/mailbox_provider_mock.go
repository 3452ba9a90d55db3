package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/vitlabuda/pop3sf"
)

// MailboxProvider is a testify mock of pop3sf.MailboxProvider, hand-written
// in the shape mockery would generate (this module runs no code-generation
// step for its test doubles).
type MailboxProvider struct {
	mock.Mock
}

func (m *MailboxProvider) Provide(user string, readOnly bool) (pop3sf.Mailbox, error) {
	args := m.Called(user, readOnly)
	var mb pop3sf.Mailbox
	if v := args.Get(0); v != nil {
		mb = v.(pop3sf.Mailbox)
	}
	return mb, args.Error(1)
}

// mockConstructorT is the minimal testing.T surface every New<Type> mock
// constructor in this package needs.
type mockConstructorT interface {
	mock.TestingT
	Cleanup(func())
}

// NewMailboxProvider constructs a MailboxProvider mock and registers
// t.Cleanup to assert every expectation was met.
func NewMailboxProvider(t mockConstructorT) *MailboxProvider {
	m := &MailboxProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Mailbox is a testify mock of pop3sf.Mailbox.
type Mailbox struct {
	mock.Mock
}

func (m *Mailbox) Stat() (int, int, error) {
	args := m.Called()
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *Mailbox) List() ([]int, error) {
	args := m.Called()
	var sizes []int
	if v := args.Get(0); v != nil {
		sizes = v.([]int)
	}
	return sizes, args.Error(1)
}

func (m *Mailbox) Message(msgNumber int) (io.ReadCloser, error) {
	args := m.Called(msgNumber)
	var r io.ReadCloser
	if v := args.Get(0); v != nil {
		r = v.(io.ReadCloser)
	}
	return r, args.Error(1)
}

func (m *Mailbox) Dele(msgNumber int) error {
	args := m.Called(msgNumber)
	return args.Error(0)
}

func (m *Mailbox) Uidl() ([]string, error) {
	args := m.Called()
	var uidls []string
	if v := args.Get(0); v != nil {
		uidls = v.([]string)
	}
	return uidls, args.Error(1)
}

func (m *Mailbox) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NewMailbox constructs a Mailbox mock and registers t.Cleanup to assert
// every expectation was met.
func NewMailbox(t mockConstructorT) *Mailbox {
	m := &Mailbox{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
