package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name   string
		source string
		want   string // check name, "" for no match
	}{
		{name: "json parse", source: "const v = JSON.parse(input);", want: "json-parse"},
		{name: "await without async", source: "await fetch('/x');", want: "await-outside-async"},
		{name: "await inside async", source: "async function f() { await g(); }", want: ""},
		{name: "await in nested sync function still passes", source: "async function f() {}\nfunction g() { await h(); }", want: ""},
		{name: "awaiting is not await", source: "const awaiting = 1;", want: ""},
		{name: "localStorage", source: "localStorage.setItem('k', 'v');", want: "web-storage"},
		{name: "sessionStorage", source: "sessionStorage.clear();", want: "web-storage"},
		{name: "getItem alone", source: "cache.getItem('k');", want: "web-storage"},
		{name: "dom lookup without markup", source: "document.getElementById('app').textContent = 'x';", want: "missing-dom-element"},
		{name: "dom lookup with inline markup", source: "// <div id=\"app\"></div>\ndocument.getElementById('app');", want: ""},
		{name: "clean", source: "const a = 5;\nconsole.log(a);", want: ""},
		{name: "empty", source: "", want: ""},
		// JSON check wins over storage check
		{name: "ordering", source: "JSON.parse(localStorage.getItem('k'))", want: "json-parse"},
		{name: "await before storage", source: "await localStorage.getItem('k')", want: "await-outside-async"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := scanner.Scan(tt.source)
			if tt.want == "" {
				assert.Nil(t, check)
				return
			}
			require.NotNil(t, check)
			assert.Equal(t, tt.want, check.Name)
			assert.NotEmpty(t, check.Advisory)
		})
	}
}

func TestScanAdvisories(t *testing.T) {
	check := NewScanner().Scan("JSON.parse(input)")
	require.NotNil(t, check)
	assert.Contains(t, check.Advisory, "JSON format")
}

func TestCustomChecks(t *testing.T) {
	scanner := NewScanner(Check{
		Name:     "eval",
		Advisory: "eval is risky",
		Match:    func(s string) bool { return s == "eval('1')" },
	})

	require.NotNil(t, scanner.Scan("eval('1')"))
	assert.Nil(t, scanner.Scan("JSON.parse(x)"))
}

func TestSizeCheck(t *testing.T) {
	check := SizeCheck(8)

	assert.Equal(t, "oversize", check.Name)
	assert.Contains(t, check.Advisory, "8 bytes")
	assert.False(t, check.Match("12345678"))
	assert.True(t, check.Match("123456789"))
}

func TestScannerWith(t *testing.T) {
	base := NewScanner()
	scanner := base.With(SizeCheck(10))

	// Prepended check runs first
	check := scanner.Scan("JSON.parse(input)")
	require.NotNil(t, check)
	assert.Equal(t, "oversize", check.Name)

	// Receiver is unchanged
	check = base.Scan("JSON.parse(input)")
	require.NotNil(t, check)
	assert.Equal(t, "json-parse", check.Name)

	assert.Nil(t, scanner.Scan("1 + 1"))
}
