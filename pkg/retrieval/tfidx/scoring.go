package tfidx

// lengthAdjustment implements the three TF length-normalization
// strategies Query's scoring step can select between.
func lengthAdjustment(kind LengthAdjustment, avgLen float64, docLen int) float64 {
	switch kind {
	case AdjustmentBM25:
		if docLen == 0 {
			return 1
		}
		return avgLen / float64(docLen)
	case AdjustmentSmallDocPenalty:
		if avgLen == 0 {
			return 1
		}
		ratio := float64(docLen) / avgLen
		if ratio > 1 {
			ratio = 1
		}
		return 1 - (1-ratio)*(1-ratio)
	default:
		return 1
	}
}
