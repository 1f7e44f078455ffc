package billing

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cycle
		wantErr bool
	}{
		{
			name:  "january 2025",
			input: "0125",
			want:  Cycle{Month: time.January, Year: 2025},
		},
		{
			name:  "december 2030",
			input: "1230",
			want:  Cycle{Month: time.December, Year: 2030},
		},
		{
			name:    "month out of range",
			input:   "1325",
			wantErr: true,
		},
		{
			name:    "month zero",
			input:   "0025",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "125",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "01250",
			wantErr: true,
		},
		{
			name:    "letters",
			input:   "ab25",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v; want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagRoundTrip(t *testing.T) {
	for _, tag := range []string{"0100", "0625", "1199", "1230"} {
		c, err := Parse(tag)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tag, err)
		}
		if got := c.Tag(); got != tag {
			t.Errorf("Parse(%q).Tag() = %q", tag, got)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		// Dec-2029 precedes Jan-2030 even though "1229" > "0130" as a
		// string. This is the case plain string comparison gets wrong.
		{name: "cross year boundary", a: "1229", b: "0130", want: -1},
		{name: "cross year boundary reversed", a: "0130", b: "1229", want: 1},
		{name: "same year earlier month", a: "0325", b: "0425", want: -1},
		{name: "same year later month", a: "0925", b: "0425", want: 1},
		{name: "equal", a: "0625", b: "0625", want: 0},
		{name: "decade apart", a: "0121", b: "0131", want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare(%q, %q): %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d; want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if _, err := Compare("9999", "0125"); err == nil {
		t.Error("Compare with invalid tag expected error")
	}
}

func TestClassify(t *testing.T) {
	ref := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		tag  string
		want Classification
	}{
		{"0325", ClassRegular},
		{"0225", ClassArrear},
		{"1224", ClassArrear},
		{"0425", ClassAdvance},
		{"0126", ClassAdvance},
	}

	for _, tt := range tests {
		got, err := Classify(tt.tag, ref)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.tag, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q; want %q", tt.tag, got, tt.want)
		}
	}
}

func TestTagAt(t *testing.T) {
	got := TagAt(time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC))
	if got != "0131" {
		t.Errorf("TagAt(Jan-2031) = %q; want %q", got, "0131")
	}
	if !IsValid(CurrentTag()) {
		t.Errorf("CurrentTag() = %q is not a valid tag", CurrentTag())
	}
}
