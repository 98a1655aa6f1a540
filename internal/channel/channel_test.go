package channel

import (
	"errors"
	"testing"
)

func TestParseUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare username", input: "mychannel", want: "@mychannel"},
		{name: "at-prefixed", input: "@mychannel", want: "@mychannel"},
		{name: "t.me link", input: "t.me/mychannel", want: "@mychannel"},
		{name: "https t.me link", input: "https://t.me/mychannel", want: "@mychannel"},
		{name: "http t.me link", input: "http://t.me/mychannel", want: "@mychannel"},
		{name: "telegram.me link", input: "https://telegram.me/mychannel", want: "@mychannel"},
		{name: "surrounding whitespace", input: "  @mychannel \n", want: "@mychannel"},
		{name: "trailing path dropped", input: "https://t.me/mychannel/123", want: "@mychannel"},
		{name: "query string dropped", input: "t.me/mychannel?start=1", want: "@mychannel"},
		{name: "empty input", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "bare at sign", input: "@", wantErr: true},
		{name: "private invite link", input: "https://t.me/+AbCdEfGh", wantErr: true},
		{name: "legacy joinchat link", input: "t.me/joinchat/AbCdEfGh", wantErr: true},
		{name: "spaces inside", input: "my channel", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseUsername(tc.input)

			if tc.wantErr {
				if !errors.Is(err, ErrBadLink) {
					t.Fatalf("expected ErrBadLink, got %v (result %q)", err, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseUsername(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
