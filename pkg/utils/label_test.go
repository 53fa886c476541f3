package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{"empty existing", Label{}, Label{Value: "2", Source: "rerank"}, Label{Value: "2", Source: "rerank"}},
		{"empty incoming", Label{Value: "1", Source: "filter"}, Label{}, Label{Value: "1", Source: "filter"}},
		{"accumulate", Label{Value: "1", Source: "filter"}, Label{Value: "2", Source: "rerank"}, Label{Value: "1|2", Source: "filter,rerank"}},
		{"missing source", Label{Value: "1"}, Label{Value: "2", Source: "rerank"}, Label{Value: "1|2", Source: "rerank"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNumericLabels(t *testing.T) {
	if got := IntLabel(3, "rerank"); got.Value != "3" || got.Source != "rerank" {
		t.Errorf("IntLabel() = %+v", got)
	}
	if got := FloatLabel(1.8, "rerank"); got.Value != "1.8" {
		t.Errorf("FloatLabel() = %+v", got)
	}
}
