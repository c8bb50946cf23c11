package layout

// Fixed regions. All positions derive from the page size only.
const (
	HeaderBandHeight = 90.0
	FooterBandHeight = 60.0

	// ContentTopOffset is the distance from the top edge to the first content block.
	ContentTopOffset = 120.0

	// ContentFloor is the lowest baseline body content may use without
	// running into the signature block.
	ContentFloor = 140.0

	SignatureLineY = 120.0

	LogoScale = 0.15

	titleSize     = 32.0
	fallbackSize  = 14.0
	watermarkSize = 48.0
)

// ContentTop returns the starting cursor position below the header band.
func (c *Composer) ContentTop() float64 {
	return c.page.Height - ContentTopOffset
}

// HeaderBand fills the band across the top of the page.
func (c *Composer) HeaderBand() {
	c.canvas.DrawRect(0, c.page.Height-HeaderBandHeight, c.page.Width, HeaderBandHeight, RectOptions{Fill: ColorBand})
}

// Title draws the document title inside the header band.
func (c *Composer) Title(text string) {
	c.canvas.DrawText(text, 40, c.page.Height-60, TextOptions{Font: FontTitle, Size: titleSize, Color: ColorWhite})
}

// Logo places img at the right end of the header band, scaled by LogoScale.
func (c *Composer) Logo(img Image) {
	dims := img.Scale(LogoScale)
	c.canvas.DrawImage(img, c.page.Width-dims.Width-40, c.page.Height-75, dims.Width, dims.Height)
}

// LogoFallback draws label where the logo would have been.
func (c *Composer) LogoFallback(label string) {
	c.canvas.DrawText(label, c.page.Width-150, c.page.Height-50, TextOptions{Font: FontBold, Size: fallbackSize, Color: ColorWhite})
}

// Signature draws the signature line with the issuer's details beneath it.
func (c *Composer) Signature(name, specialization, affiliation string) {
	w := c.page.Width
	c.canvas.DrawLine(w-250, SignatureLineY, w-70, SignatureLineY, 1, ColorPrimary)
	c.canvas.DrawText(name, w-240, SignatureLineY-20, TextOptions{Font: FontBold, Size: HeadingSize, Color: ColorPrimary})
	c.canvas.DrawText(specialization, w-240, SignatureLineY-35, TextOptions{Font: FontItalic, Size: 10, Color: ColorLightGray})
	c.canvas.DrawText(affiliation, w-240, SignatureLineY-48, TextOptions{Font: FontItalic, Size: 10, Color: ColorLightGray})
}

// FooterBand fills the bottom band and writes the disclaimer and verification lines.
func (c *Composer) FooterBand(disclaimer, verification string) {
	c.canvas.DrawRect(0, 0, c.page.Width, FooterBandHeight, RectOptions{Fill: ColorBand})
	c.canvas.DrawText(disclaimer, 40, 40, TextOptions{Font: FontItalic, Size: 10, Color: ColorWhite})
	c.canvas.DrawText(verification, 40, 25, TextOptions{Font: FontItalic, Size: 9, Color: ColorWhite})
}

// Watermark draws text rotated 45 degrees at low opacity across the page center.
// It must be drawn last so it layers over everything else.
func (c *Composer) Watermark(text string) {
	c.canvas.DrawText(text, c.page.Width/2-100, c.page.Height/2, TextOptions{
		Font:    FontTitle,
		Size:    watermarkSize,
		Color:   ColorWatermark,
		Opacity: 0.1,
		Rotate:  45,
	})
}
