package metrics

import (
	"reflect"
	"testing"
)

func TestFlattenStatusCodes(t *testing.T) {
	tests := []struct {
		name  string
		codes map[int]int64
		want  []StatusCount
	}{
		{
			name:  "nil codes",
			codes: nil,
			want:  nil,
		},
		{
			name:  "empty codes",
			codes: map[int]int64{},
			want:  nil,
		},
		{
			name:  "single code",
			codes: map[int]int64{200: 1000},
			want:  []StatusCount{{Code: 200, Count: 1000}},
		},
		{
			name:  "sorted by count desc",
			codes: map[int]int64{200: 10, 500: 5, 404: 20},
			want: []StatusCount{
				{Code: 404, Count: 20},
				{Code: 200, Count: 10},
				{Code: 500, Count: 5},
			},
		},
		{
			name:  "tie breaking by code asc",
			codes: map[int]int64{503: 7, 200: 7, 404: 7},
			want: []StatusCount{
				{Code: 200, Count: 7},
				{Code: 404, Count: 7},
				{Code: 503, Count: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlattenStatusCodes(tt.codes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FlattenStatusCodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlattenErrorKinds(t *testing.T) {
	got := FlattenErrorKinds(map[ErrorKind]int64{
		KindTimeout:    3,
		KindConnection: 3,
		KindOther:      9,
	})
	want := []ErrorCount{
		{Kind: KindOther, Count: 9},
		{Kind: KindConnection, Count: 3},
		{Kind: KindTimeout, Count: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenErrorKinds() = %v, want %v", got, want)
	}
}

func TestFlattenStatusClasses(t *testing.T) {
	got := FlattenStatusClasses(map[int]int64{200: 5, 204: 1, 301: 2, 503: 4, 42: 1})
	want := []ClassCount{
		{Class: "2xx", Count: 6},
		{Class: "3xx", Count: 2},
		{Class: "5xx", Count: 4},
		{Class: "other", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenStatusClasses() = %v, want %v", got, want)
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		100: "1xx",
		200: "2xx",
		299: "2xx",
		302: "3xx",
		418: "4xx",
		599: "5xx",
		600: "other",
		0:   "other",
	}
	for code, want := range tests {
		if got := StatusClass(code); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
