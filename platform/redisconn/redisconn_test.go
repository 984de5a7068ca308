package redisconn

import "testing"

func TestOptions(t *testing.T) {
	opt, err := Options("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected options: %+v", opt)
	}
	if opt.TLSConfig != nil {
		t.Fatalf("expected no TLS for redis://")
	}
}

func TestOptionsTLSInsecure(t *testing.T) {
	opt, err := Options("rediss://localhost:6379", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
}

func TestOptionsRequiresURL(t *testing.T) {
	if _, err := Options("", false); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
