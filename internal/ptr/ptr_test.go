package ptr_test

import (
	"testing"

	"github.com/myrjola/loadcoach/internal/ptr"
)

func TestRef(t *testing.T) {
	weight := 82.5
	p := ptr.Ref(weight)
	if p == nil {
		t.Fatal("Expected pointer to be non-nil")
	}
	if *p != weight {
		t.Errorf("Expected %v, got %v", weight, *p)
	}

	weight = 90
	if *p == weight {
		t.Error("Pointer value should not change when the original value is modified")
	}
}

func TestDeref(t *testing.T) {
	tests := []struct {
		name     string
		p        *int
		fallback int
		want     int
	}{
		{name: "nil uses fallback", p: nil, fallback: 2, want: 2},
		{name: "zero value is kept", p: ptr.Ref(0), fallback: 2, want: 0},
		{name: "value is returned", p: ptr.Ref(3), fallback: 2, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ptr.Deref(tt.p, tt.fallback); got != tt.want {
				t.Errorf("Deref() = %d, want %d", got, tt.want)
			}
		})
	}
}
