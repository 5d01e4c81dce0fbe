package memory

import (
	"runtime/debug"
	"testing"
)

// resetMemLimit restores the unlimited default after a test adjusted it.
func resetMemLimit(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		debug.SetMemoryLimit(-1)
	})
}

func TestConfigureFromEnvNoVariables(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "")
	t.Setenv("MEMORY_RATIO", "")

	result := ConfigureFromEnv()

	if result.Configured {
		t.Error("Expected Configured to be false when no env vars set")
	}
	if result.Source != "none" {
		t.Errorf("Expected Source to be 'none', got %q", result.Source)
	}
	if result.ContainerLimit != 0 {
		t.Errorf("Expected ContainerLimit to be 0, got %d", result.ContainerLimit)
	}
	if result.GoMemLimit != 0 {
		t.Errorf("Expected GoMemLimit to be 0, got %d", result.GoMemLimit)
	}
}

func TestConfigureFromEnvMemoryLimit(t *testing.T) {
	resetMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "1073741824") // 1 GiB
	t.Setenv("MEMORY_RATIO", "")

	result := ConfigureFromEnv()

	if !result.Configured {
		t.Error("Expected Configured to be true when MEMORY_LIMIT is set")
	}
	if result.Source != sourceMEMORYLIMIT {
		t.Errorf("Expected Source to be %q, got %q", sourceMEMORYLIMIT, result.Source)
	}
	if result.ContainerLimit != 1073741824 {
		t.Errorf("Expected ContainerLimit to be 1073741824, got %d", result.ContainerLimit)
	}

	limit := int64(1073741824)
	expected := int64(float64(limit) * DefaultMemoryRatio)
	if result.GoMemLimit != expected {
		t.Errorf("Expected GoMemLimit to be %d, got %d", expected, result.GoMemLimit)
	}
	if result.Ratio != DefaultMemoryRatio {
		t.Errorf("Expected Ratio to be %f, got %f", DefaultMemoryRatio, result.Ratio)
	}
}

func TestConfigureFromEnvCustomRatio(t *testing.T) {
	resetMemLimit(t)
	t.Setenv("GOMEMLIMIT", "")
	t.Setenv("MEMORY_LIMIT", "2147483648") // 2 GiB
	t.Setenv("MEMORY_RATIO", "0.75")

	result := ConfigureFromEnv()

	if !result.Configured {
		t.Error("Expected Configured to be true")
	}
	if result.Ratio != 0.75 {
		t.Errorf("Expected Ratio to be 0.75, got %f", result.Ratio)
	}

	expected := int64(float64(2147483648) * 0.75)
	if result.GoMemLimit != expected {
		t.Errorf("Expected GoMemLimit to be %d, got %d", expected, result.GoMemLimit)
	}
}

func TestConfigureFromEnvInvalidLimit(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not a number", value: "not-a-number"},
		{name: "negative", value: "-1073741824"},
		{name: "zero", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.value)

			result := ConfigureFromEnv()

			if result.Configured {
				t.Errorf("Expected Configured to be false for MEMORY_LIMIT %q", tt.value)
			}
			if result.Source != "none" {
				t.Errorf("Expected Source to be 'none', got %q", result.Source)
			}
		})
	}
}

func TestConfigureFromEnvInvalidRatio(t *testing.T) {
	tests := []struct {
		name          string
		ratioValue    string
		expectedRatio float64
	}{
		{name: "not a number", ratioValue: "not-a-number", expectedRatio: DefaultMemoryRatio},
		{name: "zero ratio", ratioValue: "0", expectedRatio: DefaultMemoryRatio},
		{name: "negative ratio", ratioValue: "-0.5", expectedRatio: DefaultMemoryRatio},
		{name: "ratio above one", ratioValue: "1.5", expectedRatio: DefaultMemoryRatio},
		{name: "boundary ratio", ratioValue: "1.0", expectedRatio: 1.0},
		{name: "small valid ratio", ratioValue: "0.01", expectedRatio: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetMemLimit(t)
			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", "1073741824")
			t.Setenv("MEMORY_RATIO", tt.ratioValue)

			result := ConfigureFromEnv()

			if !result.Configured {
				t.Error("Expected Configured to be true even with an invalid ratio")
			}
			if result.Ratio != tt.expectedRatio {
				t.Errorf("Expected ratio %f, got %f", tt.expectedRatio, result.Ratio)
			}
		})
	}
}

func TestDefaultMemoryRatioConstant(t *testing.T) {
	if DefaultMemoryRatio <= 0 || DefaultMemoryRatio > 1.0 {
		t.Errorf("DefaultMemoryRatio should be between 0 and 1, got %f", DefaultMemoryRatio)
	}
}
