package embedding

import "github.com/hyperjump/regvec/pkg/utils"

// MeanPool averages token embeddings where attentionMask is 1 and L2-normalizes the result.
// hidden is a row-major [seqLen, dims] matrix.
func MeanPool(hidden []float32, attentionMask []int64, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for tok, m := range attentionMask {
		if m == 0 {
			continue
		}
		row := hidden[tok*dims : (tok+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range out {
			out[i] /= count
		}
	}
	utils.NormalizeL2(out)
	return out
}
