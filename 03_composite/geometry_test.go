package composite

import "testing"

func TestFitAndCrop(t *testing.T) {
	tests := []struct {
		name                   string
		srcW, srcH, dstW, dstH int
		wantW, wantH           int
		wantX, wantY           int
	}{
		{"landscape into portrait", 1920, 1080, 1080, 1920, 3413, 1920, 1166, 0},
		{"portrait into landscape", 1080, 1920, 1920, 1080, 1920, 3413, 0, 1166},
		{"exact match", 1080, 1920, 1080, 1920, 1080, 1920, 0, 0},
		{"portrait into portrait wider", 1440, 1920, 1080, 1920, 1440, 1920, 180, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, x, y := fitAndCrop(tt.srcW, tt.srcH, tt.dstW, tt.dstH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("scale = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("crop offset = %d,%d, want %d,%d", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestFitAndCropAlwaysCovers(t *testing.T) {
	// Truncation must never leave the scaled frame smaller than the target.
	sizes := [][2]int{{1079, 1920}, {853, 480}, {641, 361}, {1279, 721}}
	for _, s := range sizes {
		w, h, x, y := fitAndCrop(s[0], s[1], 1080, 1920)
		if w < 1080 || h < 1920 {
			t.Errorf("src %dx%d: scaled %dx%d does not cover 1080x1920", s[0], s[1], w, h)
		}
		if x < 0 || y < 0 || x+1080 > w || y+1920 > h {
			t.Errorf("src %dx%d: crop %d,%d out of bounds for %dx%d", s[0], s[1], x, y, w, h)
		}
	}
}

func TestFitAndCropDegenerateSource(t *testing.T) {
	w, h, x, y := fitAndCrop(0, 0, 1080, 1920)
	if w != 1080 || h != 1920 || x != 0 || y != 0 {
		t.Errorf("degenerate source should pass target through, got %d %d %d %d", w, h, x, y)
	}
}
