package services

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	svc := &IngestionService{}

	tests := []struct {
		name       string
		line       string
		wantErr    bool
		wantTenths int
	}{
		{
			name:       "valid line",
			line:       "2025-03-10T06:00:00Z\t-23",
			wantTenths: -23,
		},
		{
			name:       "missing sentinel passes parsing",
			line:       "2025-03-10T06:00:00Z\t-9999",
			wantTenths: -9999,
		},
		{
			name:       "surrounding whitespace tolerated",
			line:       "2025-03-10T06:00:00Z\t 105 ",
			wantTenths: 105,
		},
		{
			name:    "too few fields",
			line:    "2025-03-10T06:00:00Z",
			wantErr: true,
		},
		{
			name:    "too many fields",
			line:    "2025-03-10T06:00:00Z\t-23\textra",
			wantErr: true,
		},
		{
			name:    "non-numeric temperature",
			line:    "2025-03-10T06:00:00Z\tcold",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := svc.parseLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLine(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if record.TemperatureTenths != tt.wantTenths {
				t.Errorf("TemperatureTenths = %d, want %d", record.TemperatureTenths, tt.wantTenths)
			}
		})
	}
}

func TestSchedulerNextFireTime(t *testing.T) {
	s := &Scheduler{hour: 0, minute: 5}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's fire time",
			now:  time.Date(2025, time.March, 10, 0, 1, 0, 0, time.UTC),
			want: time.Date(2025, time.March, 10, 0, 5, 0, 0, time.UTC),
		},
		{
			name: "after today's fire time rolls to tomorrow",
			now:  time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.March, 11, 0, 5, 0, 0, time.UTC),
		},
		{
			name: "exactly at fire time waits for tomorrow",
			now:  time.Date(2025, time.March, 10, 0, 5, 0, 0, time.UTC),
			want: time.Date(2025, time.March, 11, 0, 5, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.nextFireTime(tt.now); !got.Equal(tt.want) {
				t.Errorf("nextFireTime(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
