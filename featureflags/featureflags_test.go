package featureflags_test

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"gitlab.com/unchained-card/card_api/featureflags"
)

func TestFlagsEnabledWithoutServer(t *testing.T) {
	assert.Equal(t, featureflags.Initialize(featureflags.Config{}), nil)
	assert.Equal(t, featureflags.IsEnabled(featureflags.EnableRegistration), true)
	assert.Equal(t, featureflags.IsEnabled(featureflags.EnableTopUp), true)
	featureflags.Close()
}
