package dicomio

// applyRescale maps stored values to output units using the modality
// rescale slope and intercept.
func applyRescale(samples []float64, slope, intercept float64) {
	if slope == 1 && intercept == 0 {
		return
	}
	for i, v := range samples {
		samples[i] = v*slope + intercept
	}
}

// invertMonochrome1 flips the intensity scale of a MONOCHROME1 frame, where
// higher stored values mean darker pixels, so that downstream stages always
// see MONOCHROME2 semantics.
func invertMonochrome1(samples []float64) {
	if len(samples) == 0 {
		return
	}

	maxV := samples[0]
	for _, v := range samples[1:] {
		if v > maxV {
			maxV = v
		}
	}
	for i, v := range samples {
		samples[i] = maxV - v
	}
}

// normalizeTo8Bit maps the sample range linearly onto [0,255] with a
// truncating cast. A flat frame has no range and normalizes to all zeros.
func normalizeTo8Bit(samples []float64) []uint8 {
	out := make([]uint8, len(samples))
	if len(samples) == 0 {
		return out
	}

	minV, maxV := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	if maxV == minV {
		return out
	}

	scale := 255.0 / (maxV - minV)
	for i, v := range samples {
		out[i] = uint8((v - minV) * scale)
	}
	return out
}
