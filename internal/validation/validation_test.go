package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registration struct {
	Login    string `json:"login" validate:"required,min=3,max=10,login"`
	Password string `json:"password" validate:"required,min=6,max=20"`
	Email    string `json:"email" validate:"required,email"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		input  registration
		fields []string
	}{
		{
			name:  "valid",
			input: registration{Login: "bob_1", Password: "p@ssW0rd", Email: "bob@x.com"},
		},
		{
			name:   "short login",
			input:  registration{Login: "bo", Password: "p@ssW0rd", Email: "bob@x.com"},
			fields: []string{"login"},
		},
		{
			name:   "login with forbidden characters",
			input:  registration{Login: "bob!", Password: "p@ssW0rd", Email: "bob@x.com"},
			fields: []string{"login"},
		},
		{
			name:   "long password and bad email",
			input:  registration{Login: "bob", Password: "123456789012345678901", Email: "nope"},
			fields: []string{"password", "email"},
		},
		{
			name:   "everything empty",
			input:  registration{},
			fields: []string{"login", "password", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Run(v.Struct(&tt.input))
			var got []string
			for _, fe := range errs {
				got = append(got, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidator_Messages(t *testing.T) {
	v := New()

	errs := Run(v.Struct(&registration{Login: "bob", Password: "p@ssW0rd", Email: ""}))
	require.Len(t, errs, 1)
	assert.Equal(t, FieldError{Message: "email is required", Field: "email"}, errs[0])

	errs = Run(v.Struct(&registration{Login: "bob", Password: "123", Email: "bob@x.com"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "password must be at least 6 characters long", errs[0].Message)
}

func TestRun_OrderAndDeduplication(t *testing.T) {
	errs := Run(
		Check(false, "code", "code is required"),
		Check(true, "email", "unused"),
		Check(false, "code", "second code error"),
		Check(false, "email", "email is wrong"),
	)

	assert.Equal(t, []FieldError{
		{Message: "code is required", Field: "code"},
		{Message: "email is wrong", Field: "email"},
	}, errs)

	assert.Empty(t, Run())
}

func TestTrim(t *testing.T) {
	login, email := "  bob ", "\tbob@x.com\n"
	Trim(&login, &email)
	assert.Equal(t, "bob", login)
	assert.Equal(t, "bob@x.com", email)
}
