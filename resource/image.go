package resource

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"render-scaffold/gpu"
)

// ImageSource is where an asynchronously loaded texture comes from.
type ImageSource interface {
	Open() (io.ReadCloser, error)
	String() string
}

// FileSource reads an image from disk.
type FileSource string

func (f FileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }
func (f FileSource) String() string               { return string(f) }

// URLSource fetches an image over HTTP. In the browser build the request is
// served by fetch.
type URLSource string

func (u URLSource) Open() (io.ReadCloser, error) {
	resp, err := http.Get(string(u))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", string(u), resp.Status)
	}
	return resp.Body, nil
}

func (u URLSource) String() string { return string(u) }

// BytesSource serves an image already held in memory.
type BytesSource struct {
	Name string
	Data []byte
}

func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

func (b BytesSource) String() string { return b.Name }

// Image is decoded RGBA8 pixel data, bottom row first, ready for upload.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

// DecodeImage decodes a PNG, JPEG, GIF, BMP or WebP image and flips it so the
// first row in memory is the bottom of the picture.
func DecodeImage(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: flipRows(rgba.Pix, rgba.Stride, bounds.Dy()),
	}, nil
}

func flipRows(pix []byte, stride, rows int) []byte {
	out := make([]byte, len(pix))
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

type decoded struct {
	name string
	src  string
	img  *Image
	err  error
}

// LoadTexture registers a placeholder under name and decodes src in the
// background. The placeholder stays bound until a later Poll swaps in the
// decoded image.
func (r *Registry) LoadTexture(name string, src ImageSource) (gpu.Texture, error) {
	tex, err := r.PlaceholderTexture(name)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.pending++
	r.mu.Unlock()

	go func() {
		result := decoded{name: name, src: src.String()}
		rc, err := src.Open()
		if err == nil {
			result.img, err = DecodeImage(rc)
			rc.Close()
		}
		result.err = err

		r.mu.Lock()
		r.done = append(r.done, result)
		r.mu.Unlock()
	}()
	return tex, nil
}

// Pending returns the number of loads that have not been swapped in yet.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Poll uploads every image decoded since the last call and swaps it in for
// its placeholder. It returns the number of textures swapped.
func (r *Registry) Poll() int {
	r.mu.Lock()
	done := r.done
	r.done = nil
	r.pending -= len(done)
	r.mu.Unlock()

	swapped := 0
	for _, d := range done {
		res, ok := r.textures[d.name]
		if !ok {
			continue
		}
		if d.err != nil {
			logger.Errorf("texture %q: load %s: %v", d.name, d.src, d.err)
			continue
		}

		tex := r.upload(d.img.Width, d.img.Height, gpu.RGBA8, gpu.Linear, d.img.Pixels)
		r.ctx.DeleteTexture(gpu.Texture(res.Handle))
		res.Handle = uint32(tex)
		res.Width, res.Height = d.img.Width, d.img.Height
		res.Format, res.Filter = gpu.RGBA8, gpu.Linear
		swapped++
		logger.Infof("texture %q: loaded %s (%dx%d)", d.name, d.src, d.img.Width, d.img.Height)
	}
	return swapped
}
