package model_test

import (
	"testing"

	"github.com/go-playground/assert/v2"
	"gitlab.com/unchained-card/card_api/model"
)

func strPtr(s string) *string {
	return &s
}

func TestResolveRoute(t *testing.T) {
	tests := []struct {
		name      string
		connected bool
		user      *model.User
		want      model.Route
	}{
		{"not connected", false, nil, model.RouteLanding},
		{"not connected with stale record", false, &model.User{CardCode: strPtr("CARD1")}, model.RouteLanding},
		{"connected without record", true, nil, model.RouteRegistration},
		{"record without card", true, &model.User{WalletAddress: "0xab"}, model.RouteWaiting},
		{"record with empty card code", true, &model.User{WalletAddress: "0xab", CardCode: strPtr("")}, model.RouteWaiting},
		{"record with card", true, &model.User{WalletAddress: "0xab", CardCode: strPtr("CARD1")}, model.RouteDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, model.ResolveRoute(tt.connected, tt.user), tt.want)
		})
	}
}

func TestNormalizeWallet(t *testing.T) {
	assert.Equal(t, model.NormalizeWallet(" 0xAbCdEF0000000000000000000000000000000001 "), "0xabcdef0000000000000000000000000000000001")
	assert.Equal(t, model.IsWalletAddress("0xAbCdEF0000000000000000000000000000000001"), true)
	assert.Equal(t, model.IsWalletAddress("0xAbCd"), false)
	assert.Equal(t, model.IsWalletAddress("AbCdEF0000000000000000000000000000000001"), false)
}
