package patient

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"1990-04-12T00:00:00Z"`), &d); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !d.Equal(NewDate(1990, time.April, 12).Time) {
		t.Errorf("Expected 1990-04-12, got %v", d)
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(b) != `"1990-04-12"` {
		t.Errorf("Expected date-only output, got %s", b)
	}

	if err := json.Unmarshal([]byte(`"12/04/1990"`), &d); err == nil {
		t.Error("Expected error for non-ISO date")
	}

	b, _ = json.Marshal(Date{})
	if string(b) != "null" {
		t.Errorf("Expected null for zero date, got %s", b)
	}
}

func TestAgeOn(t *testing.T) {
	dob := NewDate(2000, time.March, 15)
	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"day before birthday", time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), 23},
		{"on birthday", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), 24},
		{"later in year", time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeOn(dob, tt.today); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
	if AgeOn(Date{}, time.Now()) != 0 {
		t.Error("Expected 0 for missing date of birth")
	}
}
