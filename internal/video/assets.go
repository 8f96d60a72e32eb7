package video

// Asset is a still image covering [Start, End) of the final video.
type Asset struct {
	Source string
	Start  float64
	End    float64
}

// Span is the asset's on-screen duration.
func (a Asset) Span() float64 { return a.End - a.Start }

// PlaceAssets divides total evenly across sources in input order. The last
// asset ends exactly at total so rounding never leaves a gap.
func PlaceAssets(total float64, sources []string) []Asset {
	if total <= 0 || len(sources) == 0 {
		return nil
	}
	span := total / float64(len(sources))
	assets := make([]Asset, len(sources))
	for i, src := range sources {
		assets[i] = Asset{Source: src, Start: float64(i) * span, End: float64(i+1) * span}
	}
	assets[len(assets)-1].End = total
	return assets
}
