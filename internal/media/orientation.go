package media

// Orientation buckets a video's frame shape. It doubles as the storage key
// prefix for published videos.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Other     Orientation = "other"
)

// Classify maps integer dimensions to an Orientation using exact floor
// division against 16:9. Landscape is checked first, so dimensions that
// satisfy both equalities (1x1) are landscape.
func Classify(width, height int) Orientation {
	if width == 16*height/9 {
		return Landscape
	}
	if height == 16*width/9 {
		return Portrait
	}
	return Other
}
