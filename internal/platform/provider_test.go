package platform

import (
	"errors"
	"testing"
)

func TestNewProvider_NoBackend(t *testing.T) {
	orig := NewProviderFunc
	NewProviderFunc = nil
	defer func() { NewProviderFunc = orig }()

	_, err := NewProvider(Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got: %v", err)
	}
}

func TestNewProvider_UsesRegisteredBackend(t *testing.T) {
	orig := NewProviderFunc
	defer func() { NewProviderFunc = orig }()

	var gotPath string
	NewProviderFunc = func(opts Options) (*Provider, error) {
		gotPath = opts.Path
		return &Provider{}, nil
	}
	p, err := NewProvider(Options{Path: "/agent"})
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || gotPath != "/agent" {
		t.Errorf("backend not called with options, path=%q", gotPath)
	}
}

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestProvider_Close(t *testing.T) {
	var nilProvider *Provider
	if err := nilProvider.Close(); err != nil {
		t.Errorf("nil provider Close: %v", err)
	}
	if err := (&Provider{}).Close(); err != nil {
		t.Errorf("Close without closer: %v", err)
	}
	c := &closeCounter{}
	if err := (&Provider{Closer: c}).Close(); err != nil || c.n != 1 {
		t.Errorf("Close should call closer once, got n=%d err=%v", c.n, err)
	}
}
