package features

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/terrascope/geometry"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50
	// Degenerate rects (single-point features) get padded to this.
	minRectSize = 1e-9
)

// spatialItem wraps a Feature for R-Tree indexing.
type spatialItem struct {
	*Feature
	rect *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// Index is an R-Tree over a feature table's bounding boxes. It lets the
// drawing layer clip a large table to the figure extent without walking
// every feature.
type Index struct {
	tree *rtreego.Rtree
	mu   sync.RWMutex
}

// NewIndex builds an index over all features in the table. Bounding
// rects are computed in parallel across CPU cores; insertion is
// synchronized, matching how the underlying tree must be used.
func NewIndex(t Table) (*Index, error) {
	items := make([]rtreego.Spatial, len(t.Features))
	numCPU := runtime.NumCPU()
	batch := len(t.Features) / numCPU
	if batch < 1 {
		batch = 1
	}

	var wg sync.WaitGroup
	var buildErr error
	var errOnce sync.Once
	for start := 0; start < len(t.Features); start += batch {
		end := start + batch
		if end > len(t.Features) {
			end = len(t.Features)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				rect, err := featureRect(t.Features[i])
				if err != nil {
					errOnce.Do(func() { buildErr = err })
					return
				}
				items[i] = &spatialItem{t.Features[i], rect}
			}
		}(start, end)
	}
	wg.Wait()
	if buildErr != nil {
		return nil, buildErr
	}

	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for _, item := range items {
		if item != nil {
			idx.tree.Insert(item)
		}
	}
	return idx, nil
}

func featureRect(f *Feature) (*rtreego.Rect, error) {
	b := f.Bounds()
	w := math.Max(b.Max.X-b.Min.X, minRectSize)
	h := math.Max(b.Max.Y-b.Min.Y, minRectSize)
	rect, err := rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y}, []float64{w, h})
	if err != nil {
		return nil, fmt.Errorf("features: index rect: %w", err)
	}
	return rect, nil
}

// Intersecting returns the features whose bounding boxes intersect the
// given box, in no particular order.
func (idx *Index) Intersecting(box geometry.BoundingBox) ([]*Feature, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	w := math.Max(box.Max.X-box.Min.X, minRectSize)
	h := math.Max(box.Max.Y-box.Min.Y, minRectSize)
	bounds, err := rtreego.NewRect(rtreego.Point{box.Min.X, box.Min.Y}, []float64{w, h})
	if err != nil {
		return nil, fmt.Errorf("features: invalid query box: %w", err)
	}

	results := idx.tree.SearchIntersect(bounds)
	out := make([]*Feature, 0, len(results))
	for _, r := range results {
		if item, ok := r.(*spatialItem); ok {
			out = append(out, item.Feature)
		}
	}
	return out, nil
}

// Size returns the number of indexed features.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Size()
}
