package db

import (
	"reflect"
	"testing"
)

func TestTokenizeSearchQuery(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Acme", []string{"acme"}},
		{"Acme Bank", []string{"acme", "bank"}},
		{"  MIXED   Case\ttokens ", []string{"mixed", "case", "tokens"}},
	}
	for _, tc := range cases {
		got := TokenizeSearchQuery(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("TokenizeSearchQuery(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
