//go:build contrib

package vision

import (
	"gocv.io/x/gocv/contrib"

	"cvlab/internal/demo"
)

// SURF needs the opencv_contrib modules.
var SURF = keypointDemo("surf", func() detector { s := contrib.NewSURF(); return &s })

func init() {
	contribDemos = append(contribDemos, demo.Demo{
		Name:    "surf",
		Group:   "feature",
		Summary: "SURF keypoints on the chessboard (contrib build)",
		Inputs:  []string{"chess"},
		Run:     SURF,
	})
}
