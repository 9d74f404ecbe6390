package repo

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 9*60 + 30, false},
		{"9:30", 9*60 + 30, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12:5", 0, true},
		{"123:00", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"-1:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTimeOfDay) {
				t.Errorf("expected ErrInvalidTimeOfDay, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	var v struct {
		Start TimeOfDay `json:"start"`
	}
	if err := json.Unmarshal([]byte(`{"start":"7:05"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Start != 7*60+5 {
		t.Errorf("Start = %d", v.Start)
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"start":"07:05"}` {
		t.Errorf("marshal = %s", out)
	}

	if err := json.Unmarshal([]byte(`{"start":540}`), &v); err == nil {
		t.Error("expected numeric time to be rejected")
	}
}

func TestTimeOfDayOfAndOn(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Skip("tzdata not available")
	}

	instant := time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)
	if got := TimeOfDayOf(instant, time.UTC); got.String() != "06:00" {
		t.Errorf("UTC = %s", got)
	}
	if got := TimeOfDayOf(instant, tehran); got.String() != "09:30" {
		t.Errorf("Tehran = %s", got)
	}

	at := TimeOfDay(14*60).On(instant, time.UTC)
	if !at.Equal(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("On = %s", at)
	}
}
