package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

//nolint:funlen // ok for tests
func TestRankCarsForRender(t *testing.T) {
	tests := []struct {
		name string
		cars []model.CarSample
		want []string
	}{
		{
			name: "ascending by position",
			cars: []model.CarSample{
				{Name: "c", Position: 3},
				{Name: "a", Position: 1},
				{Name: "b", Position: 2},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "missing positions sort last",
			cars: []model.CarSample{
				{Name: "nopos"},
				{Name: "a", Position: 1},
				{Name: "negative", Position: -1},
			},
			want: []string{"a", "nopos", "negative"},
		},
		{
			name: "stable for equal positions",
			cars: []model.CarSample{
				{Name: "first", Position: 2},
				{Name: "second", Position: 2},
				{Name: "leader", Position: 1},
			},
			want: []string{"leader", "first", "second"},
		},
		{
			name: "empty input",
			cars: []model.CarSample{},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lo.Map(RankCarsForRender(tt.cars),
				func(c model.CarSample, _ int) string { return c.Name })
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("render order not correct: %s", diff)
			}
		})
	}
}

func TestRankCarsForRender_DoesNotMutateInput(t *testing.T) {
	cars := []model.CarSample{
		{Name: "b", Position: 2},
		{Name: "a", Position: 1},
	}
	RankCarsForRender(cars)
	if cars[0].Name != "b" {
		t.Errorf("input slice was reordered")
	}
}
