package util

import (
	"os"
	"testing"
	"time"
)

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "unset uses default", value: "", defaultValue: true, want: true},
		{name: "true lowercase", value: "true", defaultValue: false, want: true},
		{name: "numeric one", value: "1", defaultValue: false, want: true},
		{name: "yes with spaces", value: "  yes ", defaultValue: false, want: true},
		{name: "on uppercase", value: "ON", defaultValue: false, want: true},
		{name: "false", value: "false", defaultValue: true, want: false},
		{name: "numeric zero", value: "0", defaultValue: true, want: false},
		{name: "off", value: "off", defaultValue: true, want: false},
		{name: "garbage uses default", value: "banana", defaultValue: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_PARSE_BOOL_ENV"
			if tt.value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, tt.value)
				defer os.Unsetenv(key)
			}
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	key := "TEST_PARSE_DURATION_ENV"
	os.Unsetenv(key)
	if got := ParseDurationEnv(key, time.Hour); got != time.Hour {
		t.Errorf("unset: got %v, want default", got)
	}
	os.Setenv(key, "45m")
	defer os.Unsetenv(key)
	if got := ParseDurationEnv(key, time.Hour); got != 45*time.Minute {
		t.Errorf("45m: got %v", got)
	}
	os.Setenv(key, "not-a-duration")
	if got := ParseDurationEnv(key, time.Hour); got != time.Hour {
		t.Errorf("invalid: got %v, want default", got)
	}
}

func TestParseInt64Env(t *testing.T) {
	key := "TEST_PARSE_INT64_ENV"
	os.Unsetenv(key)
	if got := ParseInt64Env(key, 7); got != 7 {
		t.Errorf("unset: got %d, want default", got)
	}
	os.Setenv(key, " 424242 ")
	defer os.Unsetenv(key)
	if got := ParseInt64Env(key, 7); got != 424242 {
		t.Errorf("set: got %d", got)
	}
	os.Setenv(key, "NaN")
	if got := ParseInt64Env(key, 7); got != 7 {
		t.Errorf("invalid: got %d, want default", got)
	}
}
