package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("fatima@culturekart.pk"))
	assert.NoError(t, ValidateEmail("a.b+tag@example.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("@example.com"))
	assert.Error(t, ValidateEmail("user@"+strings.Repeat("x", 250)+".com"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("hunar1234"))
	assert.Error(t, ValidatePassword("short1"))
	assert.Error(t, ValidatePassword("onlyletters"))
	assert.Error(t, ValidatePassword("12345678"))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(49.99))
	assert.Error(t, ValidateAmount(0))
	assert.Error(t, ValidateAmount(-10))
	assert.Error(t, ValidateAmount(1_000_001))
}

func TestValidateBankAccount(t *testing.T) {
	assert.NoError(t, ValidateBankAccount("PK36SCBL0000001123456702"))
	assert.NoError(t, ValidateBankAccount("12345678"))
	assert.Error(t, ValidateBankAccount("1234567"))
	assert.Error(t, ValidateBankAccount("pk36scbl0000001123456702"))
	assert.Error(t, ValidateBankAccount("1234 5678"))
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(1))
	assert.NoError(t, ValidateRating(5))
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
}

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("Is the shawl still available?"))
	assert.Error(t, ValidateMessageBody("   "))
	assert.Error(t, ValidateMessageBody(strings.Repeat("x", 4001)))
}
