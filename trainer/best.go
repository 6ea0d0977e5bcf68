package trainer

import "math"

// BestMetrics tracks the best test accuracy and loss seen so far.
type BestMetrics struct {
	Acc  float64
	Loss float64
}

// NewBestMetrics starts at zero accuracy and infinite loss.
func NewBestMetrics() BestMetrics {
	return BestMetrics{Acc: 0, Loss: math.Inf(1)}
}

// Update records any improvement and reports whether there was one. The two
// metrics improve independently.
func (b *BestMetrics) Update(loss, acc float64) bool {
	var improved bool
	if loss < b.Loss {
		b.Loss = loss
		improved = true
	}
	if acc > b.Acc {
		b.Acc = acc
		improved = true
	}
	return improved
}
