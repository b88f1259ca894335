package validator

import (
	"errors"
	"testing"

	gvalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorInitialization(t *testing.T) {
	t.Run("should initialize validator instance", func(t *testing.T) {
		assert.NotNil(t, validator)
	})

	t.Run("should work correctly after initialization", func(t *testing.T) {
		type SimpleStruct struct {
			Name string `validate:"required"`
		}

		err := validator.Struct(SimpleStruct{Name: "test"})
		assert.NoError(t, err)
	})
}

func TestFormatError(t *testing.T) {
	t.Run("should transform validation errors to formatted errors", func(t *testing.T) {
		testValidator := gvalidator.New()

		type TestStruct struct {
			Name string `validate:"required"`
		}

		err := testValidator.Struct(TestStruct{})
		require.Error(t, err)

		formattedErr := formatError(err)

		assert.ErrorIs(t, formattedErr, ErrValidationFailed)
		assert.Contains(t, formattedErr.Error(), "'Name': value '' does not meet the requirements for the 'required' validation")
	})

	t.Run("should return original error when not validation error", func(t *testing.T) {
		originalErr := errors.New("store connection failed")
		formattedErr := formatError(originalErr)

		assert.Equal(t, originalErr, formattedErr)
	})

	t.Run("should handle multiple validation errors", func(t *testing.T) {
		testValidator := gvalidator.New()

		type MultiFieldStruct struct {
			Name     string `validate:"required"`
			Endpoint string `validate:"required,url"`
		}

		err := testValidator.Struct(MultiFieldStruct{Endpoint: "invalid"})
		require.Error(t, err)

		formattedErr := formatError(err)

		assert.ErrorIs(t, formattedErr, ErrValidationFailed)
		errStr := formattedErr.Error()
		assert.Contains(t, errStr, "'Name': value '' does not meet the requirements for the 'required' validation")
		assert.Contains(t, errStr, "'Endpoint': value 'invalid' does not meet the requirements for the 'url' validation")
	})
}

func TestValidate(t *testing.T) {
	t.Run("should pass when all required fields are present", func(t *testing.T) {
		type Multisig struct {
			Address   string `validate:"required"`
			Threshold uint32 `validate:"required,gt=0"`
		}

		err := Validate(Multisig{Address: "5F3sa2TJAWMqDhXG6jhV4N8ko9SxwGy8TpaNS1repo5EYjQX", Threshold: 2})
		assert.NoError(t, err)
	})

	t.Run("should pass when validating nested struct", func(t *testing.T) {
		type Signatory struct {
			Address string `validate:"required"`
		}

		type Config struct {
			Name        string      `validate:"required"`
			Signatories []Signatory `validate:"required,min=1,dive"`
		}

		err := Validate(Config{
			Name:        "treasury",
			Signatories: []Signatory{{Address: "5F3sa2TJAWMqDhXG6jhV4N8ko9SxwGy8TpaNS1repo5EYjQX"}},
		})
		assert.NoError(t, err)
	})

	t.Run("should fail when required field is empty", func(t *testing.T) {
		type Multisig struct {
			Address   string `validate:"required"`
			Threshold uint32 `validate:"required,gt=0"`
		}

		err := Validate(Multisig{Threshold: 2})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "'Address': value '' does not meet the requirements for the 'required' validation")
	})

	t.Run("should fail when enum value is invalid", func(t *testing.T) {
		type Account struct {
			Role string `validate:"required,oneof=admin signer observer"`
		}

		err := Validate(Account{Role: "superuser"})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}
