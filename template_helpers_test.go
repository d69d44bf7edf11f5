package accounts_test

import (
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
)

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("flattens field errors", func(t *testing.T) {
		err := validation.Errors{
			"email":    fmt.Errorf("must be a valid email address"),
			"password": fmt.Errorf("the length must be between 6 and 128"),
		}

		out := accounts.FormatValidationErrorToMap(err)
		assert.Equal(t, "must be a valid email address", out["email"])
		assert.Equal(t, "the length must be between 6 and 128", out["password"])
	})

	t.Run("falls back to a form level entry", func(t *testing.T) {
		out := accounts.FormatValidationErrorToMap(fmt.Errorf("something broke"))
		assert.Equal(t, "something broke", out["form"])
	})

	t.Run("nil yields an empty map", func(t *testing.T) {
		assert.Empty(t, accounts.FormatValidationErrorToMap(nil))
	})
}
