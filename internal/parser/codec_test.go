package parser

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	paths := []string{
		"/Users/alice/code/app",
		"/home/bob",
		"/",
		"/srv/www/site.example.com",
		"/tmp/x_y",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			enc := EncodeProjectPath(p)
			if got := DecodeProjectDir(enc); got != p {
				t.Errorf(
					"DecodeProjectDir(EncodeProjectPath(%q)) = %q",
					p, got,
				)
			}
		})
	}
}

func TestEncodeProjectPath(t *testing.T) {
	if got := EncodeProjectPath("/Users/alice/code/app"); got != "-Users-alice-code-app" {
		t.Errorf("EncodeProjectPath = %q", got)
	}
}

func TestDecodeProjectDir_DashIsAmbiguous(t *testing.T) {
	got := DecodeProjectDir(EncodeProjectPath("/home/me/my-app"))
	if got != "/home/me/my/app" {
		t.Errorf("DecodeProjectDir = %q, want lossy /home/me/my/app", got)
	}
}

func TestProjectDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/Users/alice/code/app", "app"},
		{"/Users/alice/code/app/", "app"},
		{"/", "/"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ProjectDisplayName(tt.in); got != tt.want {
			t.Errorf("ProjectDisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
