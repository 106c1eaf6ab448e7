package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrivateHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"0.0.0.0", true},
		{"10.1.2.3", true},
		{"172.16.0.10", true},
		{"192.168.1.1", true},
		{"169.254.169.254", true},
		{"[::1]", true},
		{"billing.internal", true},
		{"printer.local", true},
		{"", true},
		{"8.8.8.8", false},
		{"example.com", false},
		{"172.32.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPrivateHost(tt.host))
		})
	}
}
