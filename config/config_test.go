package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	t.Setenv("ESTATE_TEST_KEY", "")
	assert.Equal(t, "fallback", Default("ESTATE_TEST_KEY", "fallback"))

	t.Setenv("ESTATE_TEST_KEY", "value")
	assert.Equal(t, "value", Default("ESTATE_TEST_KEY", "fallback"))
}

func TestInt(t *testing.T) {
	t.Setenv("ESTATE_TEST_INT", "12")
	assert.Equal(t, 12, Int("ESTATE_TEST_INT", 3))

	t.Setenv("ESTATE_TEST_INT", "twelve")
	assert.Equal(t, 3, Int("ESTATE_TEST_INT", 3))
}

func TestDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	assert.True(t, Development())

	t.Setenv("APP_ENV", "production")
	assert.False(t, Development())
}
