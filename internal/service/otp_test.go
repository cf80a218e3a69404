package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPService_IssueAndVerify(t *testing.T) {
	store := newFakeStore()
	mail := &fakeMailer{}
	otp := NewOTPService(store, mail)

	require.NoError(t, otp.Issue(context.Background(), "asha@example.com"))
	require.Equal(t, 1, mail.calls)

	code := codeRe.FindString(mail.lastBody())
	require.Len(t, code, 6)

	ok, err := otp.Verify(context.Background(), "asha@example.com", code)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Consumed on success
	ok, err = otp.Verify(context.Background(), "asha@example.com", code)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPService_VerifyWrongCode(t *testing.T) {
	store := newFakeStore()
	otp := NewOTPService(store, &fakeMailer{})

	require.NoError(t, otp.Issue(context.Background(), "asha@example.com"))

	ok, err := otp.Verify(context.Background(), "asha@example.com", "999999")
	assert.NoError(t, err)
	if ok {
		t.Skip("generated code happened to be 999999")
	}
	assert.False(t, ok)
}

func TestOTPService_VerifyWithoutIssue(t *testing.T) {
	otp := NewOTPService(newFakeStore(), &fakeMailer{})

	ok, err := otp.Verify(context.Background(), "nobody@example.com", "123456")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPService_IssueRateLimited(t *testing.T) {
	store := newFakeStore()
	mail := &fakeMailer{}
	otp := NewOTPService(store, mail)

	for i := 0; i < otpMaxPerWindow; i++ {
		require.NoError(t, otp.Issue(context.Background(), "asha@example.com"))
	}
	err := otp.Issue(context.Background(), "asha@example.com")
	assert.ErrorIs(t, err, ErrTooManyCodeRequests)
	assert.Equal(t, otpMaxPerWindow, mail.calls)
}
