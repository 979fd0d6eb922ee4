package plot

import (
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"
)

// Annotation text uses the embedded Go Regular face so figures render
// the same on any machine, with no system font lookup.
var loadFont = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

func (m *Map) face(size float64) (text.Face, error) {
	src, err := loadFont()
	if err != nil {
		return nil, err
	}
	return src.Face(size), nil
}
