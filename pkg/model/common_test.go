package model

import (
	"testing"
	"time"
)

func TestClockRange_Covers(t *testing.T) {
	tests := []struct {
		name     string
		cr       ClockRange
		start    string
		end      string
		expected bool
	}{
		{
			name:     "完全覆盖",
			cr:       ClockRange{Start: "08:00", End: "18:00"},
			start:    "09:00",
			end:      "17:00",
			expected: true,
		},
		{
			name:     "边界重合",
			cr:       ClockRange{Start: "09:00", End: "17:00"},
			start:    "09:00",
			end:      "17:00",
			expected: true,
		},
		{
			name:     "超出结束边界",
			cr:       ClockRange{Start: "08:00", End: "16:00"},
			start:    "09:00",
			end:      "17:00",
			expected: false,
		},
		{
			name:     "早于开始边界",
			cr:       ClockRange{Start: "10:00", End: "18:00"},
			start:    "09:00",
			end:      "17:00",
			expected: false,
		},
		{
			name:     "跨日范围覆盖夜班",
			cr:       ClockRange{Start: "22:00", End: "06:00"},
			start:    "23:00",
			end:      "05:00",
			expected: true,
		},
		{
			name:     "跨日范围不覆盖白班",
			cr:       ClockRange{Start: "22:00", End: "06:00"},
			start:    "09:00",
			end:      "17:00",
			expected: false,
		},
		{
			name:     "时刻格式无效",
			cr:       ClockRange{Start: "abc", End: "18:00"},
			start:    "09:00",
			end:      "17:00",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cr.Covers(tt.start, tt.end); got != tt.expected {
				t.Errorf("Covers(%s, %s) = %v, expected %v", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestWeeklyPattern_Covers(t *testing.T) {
	pattern := WeeklyPattern{
		time.Monday:  {{Start: "08:00", End: "18:00"}},
		time.Tuesday: {{Start: "08:00", End: "12:00"}, {Start: "14:00", End: "18:00"}},
	}

	tests := []struct {
		name     string
		day      time.Weekday
		start    string
		end      string
		expected bool
	}{
		{"周一工作时段", time.Monday, "09:00", "17:00", true},
		{"周一超出时段", time.Monday, "17:00", "20:00", false},
		{"周二上午段", time.Tuesday, "08:00", "12:00", true},
		{"周二跨越午休", time.Tuesday, "10:00", "16:00", false},
		{"未声明的星期", time.Wednesday, "09:00", "17:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pattern.Covers(tt.day, tt.start, tt.end); got != tt.expected {
				t.Errorf("Covers(%v, %s, %s) = %v, expected %v", tt.day, tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestWeeklyPattern_EmptyCoversAll(t *testing.T) {
	var pattern WeeklyPattern

	// 空模式视为全时段可用
	if !pattern.Covers(time.Sunday, "00:00", "23:00") {
		t.Error("Empty pattern should cover any slot")
	}
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		a        TimeRange
		b        TimeRange
		expected bool
	}{
		{
			name:     "部分重叠",
			a:        TimeRange{Start: base, End: base.Add(8 * time.Hour)},
			b:        TimeRange{Start: base.Add(4 * time.Hour), End: base.Add(12 * time.Hour)},
			expected: true,
		},
		{
			name:     "首尾相接不算重叠",
			a:        TimeRange{Start: base, End: base.Add(8 * time.Hour)},
			b:        TimeRange{Start: base.Add(8 * time.Hour), End: base.Add(16 * time.Hour)},
			expected: false,
		},
		{
			name:     "完全包含",
			a:        TimeRange{Start: base, End: base.Add(8 * time.Hour)},
			b:        TimeRange{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)},
			expected: true,
		},
		{
			name:     "完全分离",
			a:        TimeRange{Start: base, End: base.Add(4 * time.Hour)},
			b:        TimeRange{Start: base.Add(20 * time.Hour), End: base.Add(24 * time.Hour)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("Overlaps() = %v, expected %v", got, tt.expected)
			}
			// 重叠关系是对称的
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("Overlaps() reversed = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestDateRange_Days(t *testing.T) {
	tests := []struct {
		name     string
		dr       DateRange
		expected int
	}{
		{"单日", DateRange{StartDate: "2026-03-02", EndDate: "2026-03-02"}, 1},
		{"整周", DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}, 7},
		{"两周", DateRange{StartDate: "2026-03-02", EndDate: "2026-03-15"}, 14},
		{"日期无效", DateRange{StartDate: "bad", EndDate: "2026-03-08"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dr.Days(); got != tt.expected {
				t.Errorf("Days() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestDateRange_Validate(t *testing.T) {
	valid := DateRange{StartDate: "2026-03-02", EndDate: "2026-03-08"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	reversed := DateRange{StartDate: "2026-03-08", EndDate: "2026-03-02"}
	if err := reversed.Validate(); err == nil {
		t.Error("Validate() should fail when end before start")
	}

	malformed := DateRange{StartDate: "03/02/2026", EndDate: "2026-03-08"}
	if err := malformed.Validate(); err == nil {
		t.Error("Validate() should fail on malformed date")
	}
}

func TestClockMinutes(t *testing.T) {
	m, err := ClockMinutes("09:30")
	if err != nil {
		t.Fatalf("ClockMinutes() unexpected error: %v", err)
	}
	if m != 9*60+30 {
		t.Errorf("ClockMinutes(09:30) = %d, expected %d", m, 9*60+30)
	}

	if _, err := ClockMinutes("25:00"); err == nil {
		t.Error("ClockMinutes(25:00) should fail")
	}
}

func TestNewBaseModel(t *testing.T) {
	base := NewBaseModel()

	if base.ID.String() == "" {
		t.Error("ID should not be empty")
	}
	if base.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
	if base.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should not be zero")
	}
}
