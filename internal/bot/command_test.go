package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
		ok   bool
	}{
		{
			name: "bare command",
			text: "/help",
			want: Command{Name: "help", Args: []string{}},
			ok:   true,
		},
		{
			name: "command with args",
			text: "/addexpense 200 food cash",
			want: Command{Name: "addexpense", Args: []string{"200", "food", "cash"}},
			ok:   true,
		},
		{
			name: "extra whitespace",
			text: "  /addaccount   cash   150  ",
			want: Command{Name: "addaccount", Args: []string{"cash", "150"}},
			ok:   true,
		},
		{
			name: "group chat mention",
			text: "/total@financebot",
			want: Command{Name: "total", Args: []string{}},
			ok:   true,
		},
		{
			name: "uppercase normalized",
			text: "/Accounts",
			want: Command{Name: "accounts", Args: []string{}},
			ok:   true,
		},
		{name: "plain text", text: "hello there", ok: false},
		{name: "empty", text: "", ok: false},
		{name: "lone slash", text: "/", ok: false},
		{name: "slash mid-message", text: "what is /help", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.text)
			if ok != tt.ok {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Name != tt.want.Name {
				t.Errorf("name = %q, want %q", got.Name, tt.want.Name)
			}
			if len(got.Args) != 0 || len(tt.want.Args) != 0 {
				if !reflect.DeepEqual(got.Args, tt.want.Args) {
					t.Errorf("args = %v, want %v", got.Args, tt.want.Args)
				}
			}
		})
	}
}
