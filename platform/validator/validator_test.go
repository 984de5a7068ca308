package validator

import "testing"

type sample struct {
	Mode string `validate:"required,oneof=grid district"`
	Key  string `validate:"omitempty,max=8"`
}

func TestFieldsReportsFailedTags(t *testing.T) {
	v := New()
	err := v.Struct(sample{Mode: "hex", Key: "123456789"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	fields := Fields(err)
	if fields["Mode"] != "oneof" {
		t.Fatalf("expected Mode to fail oneof, got %q", fields["Mode"])
	}
	if fields["Key"] != "max" {
		t.Fatalf("expected Key to fail max, got %q", fields["Key"])
	}
}

func TestFieldsIgnoresOtherErrors(t *testing.T) {
	if Fields(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
