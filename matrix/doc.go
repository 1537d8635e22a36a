// Package matrix owns the drawing state of the LED matrix and turns it into
// frames.
//
// A [Controller] holds the background layer, the text overlay and the
// composition mode behind a single lock. A [Renderer] composes them with a
// [Compositor] on every tick and presents the result on a [Panel].
package matrix
