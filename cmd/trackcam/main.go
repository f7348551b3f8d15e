// Command trackcam runs the correlation-filter tracker over a video file,
// seeding it from a bounding box given on the command line, and optionally
// writes an annotated copy of the video.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/dzyswy/TrackerDSST/tracker"
)

func main() {
	var (
		input  = flag.String("input", "", "video file to track over")
		output = flag.String("output", "", "optional annotated output video (MJPG)")
		x      = flag.Float64("x", 0, "initial box x")
		y      = flag.Float64("y", 0, "initial box y")
		w      = flag.Float64("w", 0, "initial box width")
		h      = flag.Float64("h", 0, "initial box height")
		raw    = flag.Bool("raw", false, "use raw grayscale features instead of HOG")
		lab    = flag.Bool("lab", false, "add color-attribute features (HOG only)")
		single = flag.Bool("singlescale", false, "disable scale estimation")
	)
	flag.Parse()

	if *input == "" || *w <= 0 || *h <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	capture, err := gocv.VideoCaptureFile(*input)
	if err != nil {
		log.Fatalf("open %s: %v", *input, err)
	}
	defer capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := capture.Read(&frame); !ok || frame.Empty() {
		log.Fatalf("no frames in %s", *input)
	}

	t := tracker.New(tracker.Options{
		HOG:             !*raw,
		FixedWindow:     true,
		MultiScale:      !*single,
		ColorAttributes: *lab,
	})
	if err := t.Init(tracker.Rect{X: *x, Y: *y, Width: *w, Height: *h}, frame); err != nil {
		log.Fatalf("init tracker: %v", err)
	}

	var writer *gocv.VideoWriter
	if *output != "" {
		fps := capture.Get(gocv.VideoCaptureFPS)
		if fps <= 0 {
			fps = 25
		}
		writer, err = gocv.VideoWriterFile(*output, "MJPG", fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			log.Fatalf("open %s: %v", *output, err)
		}
		defer writer.Close()
	}

	green := color.RGBA{G: 255, A: 255}
	frames := 0
	start := time.Now()
	for {
		if ok := capture.Read(&frame); !ok || frame.Empty() {
			break
		}
		box := t.Update(frame)
		frames++

		if writer != nil {
			gocv.Rectangle(&frame, box.ToImageRect(), green, 2)
			writer.Write(frame)
		}
		if frames%30 == 0 {
			elapsed := time.Since(start).Seconds()
			log.Printf("frame %d: box=(%.1f,%.1f %.1fx%.1f) scale=%.3f peak=%.3f fps=%.1f",
				frames, box.X, box.Y, box.Width, box.Height,
				t.ScaleFactor(), t.PeakValue(), float64(frames)/elapsed)
		}
	}

	box := t.Box()
	fmt.Printf("tracked %d frames, final box (%.1f,%.1f %.1fx%.1f)\n",
		frames, box.X, box.Y, box.Width, box.Height)
}
