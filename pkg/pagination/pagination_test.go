package pagination

import "testing"

func TestParsePage(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPage   int
		wantOffset int
		wantErr    bool
	}{
		{name: "empty is first page", raw: "", wantPage: 1, wantOffset: 0},
		{name: "third page", raw: "3", wantPage: 3, wantOffset: 20},
		{name: "whitespace", raw: " 2 ", wantPage: 2, wantOffset: 10},
		{name: "zero", raw: "0", wantErr: true},
		{name: "negative", raw: "-1", wantErr: true},
		{name: "not a number", raw: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := ParsePage(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePage(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if params.Page != tt.wantPage || params.Offset() != tt.wantOffset || params.Limit() != PageSize {
				t.Errorf("ParsePage(%q) = %+v offset %d", tt.raw, params, params.Offset())
			}
		})
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name           string
		total          int64
		page           int
		wantTotalPages int
		wantHasNext    bool
	}{
		{name: "empty", total: 0, page: 1, wantTotalPages: 0, wantHasNext: false},
		{name: "exact page", total: 10, page: 1, wantTotalPages: 1, wantHasNext: false},
		{name: "one over", total: 11, page: 1, wantTotalPages: 2, wantHasNext: true},
		{name: "last page", total: 25, page: 3, wantTotalPages: 3, wantHasNext: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult[int](nil, tt.total, NewParams(tt.page))
			if result.Items == nil {
				t.Error("Items should never be nil")
			}
			if result.TotalPages != tt.wantTotalPages || result.HasNext != tt.wantHasNext {
				t.Errorf("NewResult() = %+v", result)
			}
			if result.PageSize != PageSize {
				t.Errorf("PageSize = %d, want %d", result.PageSize, PageSize)
			}
		})
	}
}
