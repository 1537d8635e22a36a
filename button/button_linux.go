package button

import (
	"fmt"
	"io"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const debounce = 20 * time.Millisecond

// Open requests line offset on chip as a pulled up input and feeds its edges
// to b. Closing the result releases the line.
func Open(chip string, offset int, b *Button) (io.Closer, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounce),
		gpiocdev.WithConsumer("pixelclockd"),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			b.Edge(evt.Type == gpiocdev.LineEventFallingEdge, evt.Timestamp)
		}))
	if err != nil {
		return nil, fmt.Errorf("button: requesting %s line %d: %w", chip, offset, err)
	}
	return line, nil
}
