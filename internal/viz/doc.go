// Package viz renders the drop scene in a terminal.
//
// [Terminal] is a viewer device that draws body proxies as braille
// wireframes; [Model] wraps it in a Bubble Tea program with a preset menu,
// a stats panel and live charts.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	x/y   - Orbit the camera
//	+/-   - Zoom
//	c     - Reset the camera
//	g     - Toggle GIF recording
//	s     - Save the current frame as SVG
//	?     - Show help overlay
//	Esc   - Back to the preset menu
//	q     - Quit
//
// # Recording
//
// Recordings are saved as drop.gif and snapshots as drop.svg in the
// current directory.
package viz
