package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr bool
	}{
		{"valid", LoginRequest{Username: "author", Password: "secret"}, false},
		{"missing username", LoginRequest{Password: "secret"}, true},
		{"missing password", LoginRequest{Username: "author"}, true},
		{"password over bcrypt limit", LoginRequest{Username: "author", Password: strings.Repeat("x", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
