package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	cases := []struct {
		contentType string
		ok          bool
	}{
		{"text/csv", true},
		{"text/csv; charset=utf-8", true},
		{"TEXT/PLAIN", true},
		{"", true},
		{"image/png", false},
		{"application/pdf", false},
	}
	for _, tc := range cases {
		err := ValidateContentType(tc.contentType)
		if (err == nil) != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.contentType, tc.ok, err)
		}
	}
}

func TestValidateObject(t *testing.T) {
	if err := ValidateObject(ObjectInfo{Size: 10, ContentType: "text/csv"}, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateObject(ObjectInfo{Size: 0, ContentType: "text/csv"}, 100); err == nil {
		t.Fatalf("expected error for empty object")
	}
	if err := ValidateObject(ObjectInfo{Size: 101, ContentType: "text/csv"}, 100); err == nil {
		t.Fatalf("expected error for oversized object")
	}
	if err := ValidateObject(ObjectInfo{Size: 101, ContentType: "text/csv"}, 0); err != nil {
		t.Fatalf("expected no limit when max is 0, got %v", err)
	}
}
