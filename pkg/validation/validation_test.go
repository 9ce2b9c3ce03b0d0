package validation

import "testing"

type sample struct {
	Title string   `form:"title" validate:"required,min=5"`
	Slug  string   `form:"slug" validate:"omitempty,slug"`
	Tags  []string `form:"tags" validate:"dive,number"`
}

func TestStruct(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{
			name:  "valid",
			input: sample{Title: "Tomato soup", Slug: "tomato-soup", Tags: []string{"1", "2"}},
		},
		{
			name:       "missing title",
			input:      sample{},
			wantFields: []string{"title"},
		},
		{
			name:       "bad slug and tag",
			input:      sample{Title: "Tomato soup", Slug: "tomato soup!", Tags: []string{"x"}},
			wantFields: []string{"slug", "tags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Struct(tt.input)
			if len(tt.wantFields) == 0 {
				if got != nil {
					t.Fatalf("Struct() = %v, want nil", got)
				}
				return
			}
			if len(got) != len(tt.wantFields) {
				t.Fatalf("Struct() = %v, want fields %v", got, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if got.First(f) == "" {
					t.Errorf("Struct() missing message for %q: %v", f, got)
				}
			}
		})
	}
}
