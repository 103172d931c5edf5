package billing

import "testing"

func TestVerifyBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		want   bool
	}{
		{header: "Bearer secret-token", token: "secret-token", want: true},
		{header: "bearer secret-token", token: "secret-token", want: true},
		{header: "  Bearer   secret-token  ", token: "secret-token", want: true},
		{header: "Bearer wrong", token: "secret-token", want: false},
		{header: "secret-token", token: "secret-token", want: false},
		{header: "Basic secret-token", token: "secret-token", want: false},
		{header: "Bearer ", token: "secret-token", want: false},
		{header: "", token: "secret-token", want: false},
		{header: "Bearer ", token: "", want: false},
		{header: "Bearer anything", token: "   ", want: false},
	}

	for _, tt := range tests {
		if got := VerifyBearerToken(tt.header, tt.token); got != tt.want {
			t.Fatalf("VerifyBearerToken(%q, %q) = %v, want %v", tt.header, tt.token, got, tt.want)
		}
	}
}
