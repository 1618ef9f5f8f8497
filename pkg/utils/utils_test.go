package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "he..."},
		{"short", 10, "short"},
		{"exact", 5, "exact"},
		{"", 5, ""},
		{"abc", 2, "ab"},
		{"abc", 3, "abc"},
		{strings.Repeat("é", 40), 10, strings.Repeat("é", 7) + "..."},
		{"héllo wörld", 11, "héllo wörld"},
		{"日本語テキスト", 2, "日本"},
	}

	for _, tt := range tests {
		result := TruncateString(tt.input, tt.length)
		if result != tt.expected {
			t.Errorf("TruncateString(%q, %d) = %q; want %q", tt.input, tt.length, result, tt.expected)
		}
		if !utf8.ValidString(result) {
			t.Errorf("TruncateString(%q, %d) = %q is not valid UTF-8", tt.input, tt.length, result)
		}
	}
}

func TestAddCommas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"123", "123"},
		{"1234", "1,234"},
		{"123456", "123,456"},
		{"1234567", "1,234,567"},
		{"1234.56", "1,234.56"},
		{"-1234", "-1,234"},
		{"", ""},
	}

	for _, tt := range tests {
		result := AddCommas(tt.input)
		if result != tt.expected {
			t.Errorf("AddCommas(%q) = %q; want %q", tt.input, result, tt.expected)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input    float64
		decimals int
		expected string
	}{
		{1234.5678, 2, "1,234.57"},
		{1234.5, 2, "1,234.50"},
		{0, 2, "0.00"},
	}

	for _, tt := range tests {
		result := FormatFloat(tt.input, tt.decimals)
		if result != tt.expected {
			t.Errorf("FormatFloat(%f, %d) = %q; want %q", tt.input, tt.decimals, result, tt.expected)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		decimals int
		expected string
	}{
		{"123456", 2, "1,234.56"},
		{"1000", 2, "10"},
		{"1500000", 0, "1,500,000"},
		{"-1500", 0, "-1,500"},
		{" 42 ", 0, "42"},
		{"not a number", 2, "not a number"},
		{"", 0, ""},
	}

	for _, tt := range tests {
		result := FormatAmount(tt.input, tt.decimals)
		if result != tt.expected {
			t.Errorf("FormatAmount(%q, %d) = %q; want %q", tt.input, tt.decimals, result, tt.expected)
		}
	}
}

func TestAmountFloat(t *testing.T) {
	f, ok := AmountFloat("2500", 2)
	if !ok || f != 25 {
		t.Errorf("AmountFloat(2500, 2) = %v, %v; want 25, true", f, ok)
	}
	if _, ok := AmountFloat("{}", 0); ok {
		t.Error("AmountFloat should reject non-numeric input")
	}
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"928bc86952ebb55788e2042ad478b8c1db3ded0d", "928bc869...ed0d"},
		{"alice", "alice"},
		{"ééééééééééééééééé", "éééééééé...éééé"},
	}
	for _, tt := range tests {
		if got := ShortAddress(tt.input); got != tt.expected {
			t.Errorf("ShortAddress(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}
