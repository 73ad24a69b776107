package projection

import (
	"slices"

	"github.com/raceviz/race-view-service-go/pkg/model"
)

// RankCarsForRender returns the samples sorted by ascending race
// position so front-running cars are drawn last and never occluded.
// Missing positions sort after all present ones; ties keep their
// input order (stable sort).
func RankCarsForRender(cars []model.CarSample) []model.CarSample {
	ret := slices.Clone(cars)
	slices.SortStableFunc(ret, func(a, b model.CarSample) int {
		return a.RenderRank() - b.RenderRank()
	})
	return ret
}
