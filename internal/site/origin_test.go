package site

import (
	"errors"
	"testing"
)

func TestDeriveOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    string
		want    string
		wantErr bool
	}{
		{name: "bare host gets trailing slash", seed: "http://example.com", want: "http://example.com/"},
		{name: "host with slash", seed: "http://example.com/", want: "http://example.com/"},
		{name: "page path is dropped", seed: "http://example.com/blog/index.html", want: "http://example.com/"},
		{name: "port is kept", seed: "http://localhost:8080/app", want: "http://localhost:8080/"},
		{name: "https is accepted", seed: "https://example.com/x", want: "https://example.com/"},
		{name: "upper-case scheme is accepted", seed: "HTTP://Example.com/", want: "HTTP://Example.com/"},
		{name: "surrounding spaces are trimmed", seed: "  http://example.com  ", want: "http://example.com/"},
		{name: "empty seed", seed: "", wantErr: true},
		{name: "missing scheme", seed: "example.com/", wantErr: true},
		{name: "unsupported scheme", seed: "ftp://example.com/", wantErr: true},
		{name: "no host", seed: "http:///path", wantErr: true},
		{name: "credentials are rejected", seed: "http://user:pw@example.com/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DeriveOrigin(tt.seed)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeed) {
					t.Fatalf("expected ErrInvalidSeed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("expected origin %q, got %q", tt.want, got.String())
			}
		})
	}
}

func TestOriginHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed string
		want string
	}{
		{seed: "http://example.com/page", want: "example.com"},
		{seed: "HTTP://Example.COM:8080/", want: "example.com:8080"},
	}
	for _, tt := range tests {
		if got := MustOrigin(tt.seed).Host(); got != tt.want {
			t.Errorf("Host() of %q = %q, want %q", tt.seed, got, tt.want)
		}
	}
}

func TestOriginContains(t *testing.T) {
	t.Parallel()

	origin := MustOrigin("http://example.com/")

	tests := []struct {
		url  string
		want bool
	}{
		{url: "http://example.com/", want: true},
		{url: "http://example.com/about", want: true},
		{url: "HTTP://EXAMPLE.COM/About", want: true},
		{url: "http://example.com", want: false},
		{url: "http://example.com.evil.org/", want: false},
		{url: "https://example.com/about", want: false},
		{url: "http://other.example/", want: false},
		{url: "", want: false},
	}

	for _, tt := range tests {
		if got := origin.Contains(tt.url); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestOriginResolve(t *testing.T) {
	t.Parallel()

	origin := MustOrigin("http://example.com")

	if got := origin.Resolve("/about"); got != "http://example.com/about" {
		t.Errorf("expected http://example.com/about, got %q", got)
	}
	if got := origin.Resolve("//double"); got != "http://example.com//double" {
		t.Errorf("expected only one leading slash stripped, got %q", got)
	}
}

func TestStartURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed string
		want string
	}{
		{seed: "http://example.com", want: "http://example.com/"},
		{seed: "http://example.com/", want: "http://example.com/"},
		{seed: "http://example.com/contact", want: "http://example.com/contact"},
	}

	for _, tt := range tests {
		got, err := StartURL(tt.seed)
		if err != nil {
			t.Fatalf("StartURL(%q): unexpected error: %v", tt.seed, err)
		}
		if got != tt.want {
			t.Errorf("StartURL(%q) = %q, want %q", tt.seed, got, tt.want)
		}
	}

	if _, err := StartURL("nope"); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("expected ErrInvalidSeed, got %v", err)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	if Key("http://Example.com/About") != Key("HTTP://EXAMPLE.COM/about") {
		t.Error("expected keys that differ only in case to be equal")
	}
	if Key("http://example.com/a") == Key("http://example.com/b") {
		t.Error("expected different URLs to have different keys")
	}
}
