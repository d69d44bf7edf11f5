package accounts_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendConfirmationHandler_Execute(t *testing.T) {
	ctx := context.Background()
	service := newActionTokenService()

	t.Run("resends for an unconfirmed account", func(t *testing.T) {
		repo := newFakeRepoManager()
		seedUser(t, repo.users, "pepe@example.com", "sup3r-secret", false)

		notifier := &recordingNotifier{}
		handler := accounts.NewResendConfirmationHandler(repo, service).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		var resp *accounts.ResendConfirmationResponse
		err := handler.Execute(ctx, accounts.ResendConfirmationMessage{
			Email: "pepe@example.com",
			OnResponse: func(r *accounts.ResendConfirmationResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.True(t, resp.Delivered)

		token := notifier.lastConfirmToken()
		require.NotEmpty(t, token)

		claims, err := service.Verify(token, accounts.PurposeConfirmEmail, accounts.ConfirmTokenMaxAge)
		require.NoError(t, err)
		assert.Equal(t, "pepe@example.com", claims.Payload())
	})

	t.Run("reports success for an unknown email without sending", func(t *testing.T) {
		repo := newFakeRepoManager()

		notifier := &recordingNotifier{}
		handler := accounts.NewResendConfirmationHandler(repo, service).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		var resp *accounts.ResendConfirmationResponse
		err := handler.Execute(ctx, accounts.ResendConfirmationMessage{
			Email: "nobody@example.com",
			OnResponse: func(r *accounts.ResendConfirmationResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.False(t, resp.Delivered)
		assert.Empty(t, notifier.lastConfirmToken())
	})

	t.Run("skips accounts that are already confirmed", func(t *testing.T) {
		repo := newFakeRepoManager()
		seedUser(t, repo.users, "pepe@example.com", "sup3r-secret", true)

		notifier := &recordingNotifier{}
		handler := accounts.NewResendConfirmationHandler(repo, service).
			WithNotifier(notifier).
			WithLogger(testLogger{})

		var resp *accounts.ResendConfirmationResponse
		err := handler.Execute(ctx, accounts.ResendConfirmationMessage{
			Email: "pepe@example.com",
			OnResponse: func(r *accounts.ResendConfirmationResponse) {
				resp = r
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.False(t, resp.Delivered)
		assert.Empty(t, notifier.lastConfirmToken())
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		handler := accounts.NewResendConfirmationHandler(newFakeRepoManager(), service).
			WithLogger(testLogger{})

		err := handler.Execute(ctx, accounts.ResendConfirmationMessage{Email: "not-an-email"})
		assert.Error(t, err)
	})
}
