package common

import "fmt"

// Color is the hue/saturation/level color model used by host automation
// platforms.  All three components range 0-100, hue covering the full color
// wheel.  The appliance itself speaks 8-bit RGB, see RGB().
type Color struct {
	Hue        uint8 // range 0 to 100
	Saturation uint8 // range 0 to 100
	Level      uint8 // range 0 to 100, overall brightness
}

// RGB converts the color to the 8-bit RGB triplet the appliance expects
func (c Color) RGB() (r, g, b uint8) {
	h := float64(c.Hue) / 100 * 360
	s := float64(c.Saturation) / 100
	v := float64(c.Level) / 100

	i := int(h/60) % 6
	f := h/60 - float64(int(h/60))
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var rf, gf, bf float64
	switch i {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	case 5:
		rf, gf, bf = v, p, q
	}

	return uint8(rf*255 + 0.5), uint8(gf*255 + 0.5), uint8(bf*255 + 0.5)
}

// Hex returns the RGB triplet as a #RRGGBB string
func (c Color) Hex() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}
