package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/model"
)

func TestStruct_Credentials(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(model.Credentials{Email: "a@b.com", Password: "secret1"}))

	err := Struct(model.Credentials{Email: "nope", Password: "123"})
	require.Error(t, err)
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"email", "password"}, ve.Fields)
	assert.Contains(t, ve.Msg, "email must be a valid email")
	assert.Contains(t, ve.Msg, "password must be at least 6 characters")
}

func TestStruct_Registration(t *testing.T) {
	t.Parallel()

	ok := model.Registration{
		Email: "c@d.com", Password: "secret1", Name: "Cleo",
		Role: model.RoleCustomer, Phone: "98765-43210", Pincode: "560001",
	}
	require.NoError(t, Struct(ok))

	pro := ok
	pro.Role = model.RoleProfessional
	err := Struct(pro)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_id is required")

	pro.ServiceID = 3
	require.NoError(t, Struct(pro))

	bad := ok
	bad.Role = model.RoleAdmin
	bad.Pincode = "12ab"
	bad.Phone = "123"
	err = Struct(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of")
	assert.Contains(t, err.Error(), "pincode must have 6 digits")
	assert.Contains(t, err.Error(), "phone must have 10 digits")
}

func TestStruct_ReviewAndService(t *testing.T) {
	t.Parallel()

	require.Error(t, Struct(model.ReviewInput{ServiceRequestID: 1, Rating: 6}))
	require.Error(t, Struct(model.ReviewInput{ServiceRequestID: 1, Rating: 0}))
	require.NoError(t, Struct(model.ReviewInput{ServiceRequestID: 1, Rating: 5}))

	err := Struct(model.ServiceInput{Name: "Plumbing", BasePrice: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_price must be greater than 0")
}

func TestPhoneAndPincode(t *testing.T) {
	t.Parallel()

	assert.True(t, Phone("(987) 654-3210"))
	assert.False(t, Phone("12345"))
	assert.True(t, Pincode("400001"))
	assert.False(t, Pincode("4000011"))
}

func TestToSnake(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "service_id", toSnake("ServiceID"))
	assert.Equal(t, "years_experience", toSnake("YearsExperience"))
	assert.Equal(t, "email", toSnake("Email"))
}
