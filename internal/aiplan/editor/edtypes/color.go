package edtypes

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

type TextAlign string

const (
	LeftAlign    TextAlign = "left"
	CenterAlign  TextAlign = "center"
	RightAlign   TextAlign = "right"
	JustifyAlign TextAlign = "justify"
)

func ParseTextAlign(raw string) (TextAlign, bool) {
	switch a := TextAlign(strings.ToLower(strings.TrimSpace(raw))); a {
	case LeftAlign, CenterAlign, RightAlign, JustifyAlign:
		return a, true
	}
	return LeftAlign, false
}

var (
	colorReg = regexp.MustCompile(`[()#\s"']`)

	ErrUnsupportedColor = errors.New("unsupported color format")
)

// Color цвет текста или подсветки. Нулевая альфа означает непрозрачный цвет без явной альфы.
type Color color.RGBA

func ParseColor(raw string) (Color, error) {
	raw = strings.Trim(strings.ToLower(strings.TrimSpace(raw)), `"'`)
	isDecRGB := strings.HasPrefix(raw, "rgb")
	isHex := strings.HasPrefix(raw, "#")
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "rgba"), "rgb")
	raw = colorReg.ReplaceAllString(raw, "")
	if isDecRGB {
		c := Color{}
		parts := strings.Split(raw, ",")
		if len(parts) < 3 || len(parts) > 4 {
			return Color{}, ErrUnsupportedColor
		}
		for i, n := range parts {
			if i == 3 {
				a, err := strconv.ParseFloat(n, 64)
				if err != nil || a < 0 || a > 1 {
					return Color{}, ErrUnsupportedColor
				}
				c.A = uint8(a*255 + 0.5)
				continue
			}
			nn, err := strconv.ParseUint(n, 10, 8)
			if err != nil {
				return Color{}, err
			}

			switch i {
			case 0:
				c.R = uint8(nn)
			case 1:
				c.G = uint8(nn)
			case 2:
				c.B = uint8(nn)
			}
		}
		return c, nil
	} else if isHex {
		// #f00 -> #ff0000
		if len(raw) == 3 || len(raw) == 4 {
			var b strings.Builder
			for _, r := range raw {
				b.WriteRune(r)
				b.WriteRune(r)
			}
			raw = b.String()
		}
		b, err := hex.DecodeString(raw)
		if err != nil {
			return Color{}, err
		}
		if len(b) != 3 && len(b) != 4 {
			return Color{}, ErrUnsupportedColor
		}
		c := Color{
			R: b[0],
			G: b[1],
			B: b[2],
		}
		if len(b) > 3 {
			c.A = b[3]
		}
		return c, nil
	}
	return Color{}, ErrUnsupportedColor
}

// Hex каноническая запись цвета: #rrggbb или #rrggbbaa при явной альфе.
func (c Color) Hex() string {
	if c.A == 0 || c.A == 0xff {
		return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B})
	}
	return "#" + hex.EncodeToString([]byte{c.R, c.G, c.B, c.A})
}

func (c Color) MarshalJSON() ([]byte, error) {
	return fmt.Appendf(nil, "%q", c.Hex()), nil
}

func (c *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `""` {
		return nil
	}

	cc, err := ParseColor(string(data))
	*c = cc

	return err
}
