// Package texture decodes image files and caches the device textures made from them.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

var errTGATruncated = errors.New("tga: pixel data truncated")

// DecodeTGA decodes uncompressed or RLE true-color TGA data with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.NRGBA, error) {
	if len(data) < 18 {
		return nil, errors.New("tga: header too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, errors.New("tga: color-mapped images not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("tga: unsupported image type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("tga: unsupported bit depth %d", bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("tga: empty image %dx%d", width, height)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		width:       width,
		height:      height,
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img         *image.NRGBA
	data        []byte
	pos         int
	width       int
	height      int
	bpp         int
	topToBottom bool
}

// pixel reads one BGR(A) pixel.
func (d *tgaDecoder) pixel() (color.NRGBA, bool) {
	if d.pos+d.bpp > len(d.data) {
		return color.NRGBA{}, false
	}
	p := d.data[d.pos:]
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	d.pos += d.bpp
	return c, true
}

// set writes the i-th pixel in file order.
func (d *tgaDecoder) set(i int, c color.NRGBA) {
	x := i % d.width
	y := i / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
}

func (d *tgaDecoder) raw() error {
	if len(d.data) < d.width*d.height*d.bpp {
		return errTGATruncated
	}
	for i := 0; i < d.width*d.height; i++ {
		c, _ := d.pixel()
		d.set(i, c)
	}
	return nil
}

func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	i := 0
	for i < total {
		if d.pos >= len(d.data) {
			return errTGATruncated
		}
		packet := d.data[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run: one pixel repeated
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			for n := 0; n < count && i < total; n++ {
				d.set(i, c)
				i++
			}
			continue
		}

		for n := 0; n < count && i < total; n++ {
			c, ok := d.pixel()
			if !ok {
				return errTGATruncated
			}
			d.set(i, c)
			i++
		}
	}
	return nil
}
