package composite

// fitAndCrop computes the scale-to-cover dimensions and the centered crop
// offset that maps a source frame onto the target frame without letterboxing.
// All math stays in integers; a clamp guarantees the scaled frame covers the
// target even after truncation, so the crop never exceeds the frame.
func fitAndCrop(srcW, srcH, dstW, dstH int) (scaleW, scaleH, cropX, cropY int) {
	if srcW <= 0 || srcH <= 0 {
		return dstW, dstH, 0, 0
	}

	// Wider than target: match height. Taller or equal: match width.
	if srcW*dstH > dstW*srcH {
		scaleH = dstH
		scaleW = scaleH * srcW / srcH
	} else {
		scaleW = dstW
		scaleH = scaleW * srcH / srcW
	}
	if scaleW < dstW {
		scaleW = dstW
	}
	if scaleH < dstH {
		scaleH = dstH
	}

	cropX = (scaleW - dstW) / 2
	cropY = (scaleH - dstH) / 2
	return scaleW, scaleH, cropX, cropY
}
