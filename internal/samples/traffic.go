package samples

import (
	"image"
)

// Synthetic traffic clip used by the counter when no video is configured.
const (
	TrafficWidth  = 1280
	TrafficHeight = 720
	TrafficFrames = 300
)

const (
	carWidth  = 130
	carHeight = 110
	carSpeed  = 9  // pixels per frame
	carPeriod = 90 // frames between cars in one lane
)

// lane centres and the frame each lane's first car appears
var lanes = []struct {
	center int
	offset int
}{
	{300, 0},
	{640, 30},
	{980, 60},
}

// TrafficFrame renders frame n of the synthetic clip: three lanes of cars
// driving down the road.
func TrafficFrame(n int) image.Image {
	c := newCanvas(TrafficWidth, TrafficHeight, hex("#5f6368"))

	c.rect(image.Rect(0, 0, 120, TrafficHeight), hex("#558b2f"))
	c.rect(image.Rect(TrafficWidth-120, 0, TrafficWidth, TrafficHeight), hex("#558b2f"))
	for _, x := range []int{470, 810} {
		for y := 0; y < TrafficHeight; y += 80 {
			c.rect(image.Rect(x-4, y, x+4, y+40), white)
		}
	}

	body := hex("#fdd835")
	for _, box := range TrafficBoxes(n) {
		c.rect(box, body)
	}
	return c.Image()
}

// TrafficBoxes returns the on-screen car rectangles of frame n.
func TrafficBoxes(n int) []image.Rectangle {
	bounds := image.Rect(0, 0, TrafficWidth, TrafficHeight)
	var boxes []image.Rectangle
	for _, lane := range lanes {
		for start := lane.offset; start <= n; start += carPeriod {
			top := (n-start)*carSpeed - carHeight
			left := lane.center - carWidth/2
			box := image.Rect(left, top, left+carWidth, top+carHeight).Intersect(bounds)
			if !box.Empty() {
				boxes = append(boxes, box)
			}
		}
	}
	return boxes
}

// TrafficCrossings is how many cars cross the line y within the first
// frames of the clip.
func TrafficCrossings(frames, y int) int {
	total := 0
	for _, lane := range lanes {
		for start := lane.offset; start < frames; start += carPeriod {
			// first frame whose centre row is at or below y
			reach := start + (y+carHeight/2+carSpeed-1)/carSpeed
			if reach < frames {
				total++
			}
		}
	}
	return total
}
