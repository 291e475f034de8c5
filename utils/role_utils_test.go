package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{"merchant", RoleMerchant, true},
		{" Merchant ", RoleMerchant, true},
		{"STAFF", RoleStaff, true},
		{"admin", RoleAdmin, true},
		{"customer", "customer", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeRole(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.valid, ok, tc.in)
	}
}
