package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"
)

// Page geometry of the budget layout in CSS pixels: 210x297 mm at 96 dpi.
// The height is rounded down so a minimum-height layout stays under one page.
const (
	PageWidthPx  = 794
	PageHeightPx = 1122

	padding      = 32
	sectionGap   = 32
	headingGap   = 8
	logoSize     = 80
	logoMaxWidth = 160
)

const notAvailable = "N/A"

var (
	colorText        = color.RGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	colorMuted       = color.RGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	colorBorder      = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	colorPlaceholder = color.RGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}
	colorPlaceText   = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
)

type align int

const (
	alignLeft align = iota
	alignRight
	alignCenter
)

type textStyle struct {
	size       float64
	lineHeight float64
	bold       bool
	color      color.RGBA
}

var (
	styleTitle   = textStyle{size: 24, lineHeight: 32, bold: true, color: colorText}
	styleNumber  = textStyle{size: 18, lineHeight: 28, bold: true, color: colorText}
	styleHeading = textStyle{size: 20, lineHeight: 28, bold: true, color: colorText}
	styleBody    = textStyle{size: 16, lineHeight: 24, color: colorText}
	styleLabel   = textStyle{size: 16, lineHeight: 24, bold: true, color: colorText}
	styleSmall   = textStyle{size: 14, lineHeight: 20, color: colorText}
	styleFooter  = textStyle{size: 14, lineHeight: 20, color: colorMuted}
)

type opKind int

const (
	opText opKind = iota
	opRule
	opImage
	opBox
)

// drawOp is one positioned element. Coordinates are CSS pixels; x is the
// anchor for the given alignment and y the top of the line box.
type drawOp struct {
	kind  opKind
	x, y  float64
	w, h  float64
	text  string
	style textStyle
	align align
	fill  color.RGBA
	img   image.Image
}

// LayoutInput is everything the budget document shows.
type LayoutInput struct {
	Fields         form.Fields
	Company        *models.CompanySettings
	AttachmentName string
	Logo           image.Image
}

// Layout is the formatted budget document. It must be resolved before it can
// be captured; Done is closed once resolution completes.
type Layout struct {
	input LayoutInput

	mu       sync.RWMutex
	ops      []drawOp
	height   int
	resolved bool
	done     chan struct{}
}

func NewLayout(input LayoutInput) *Layout {
	return &Layout{
		input: input,
		done:  make(chan struct{}),
	}
}

// Done returns a channel closed once the layout has been resolved.
func (l *Layout) Done() <-chan struct{} {
	return l.done
}

func (l *Layout) Resolved() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resolved
}

// Size returns the resolved size in CSS pixels.
func (l *Layout) Size() (int, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return PageWidthPx, l.height
}

func (l *Layout) snapshotOps() []drawOp {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ops
}

// Resolve positions every element of the document. Calling it again is a no-op.
func (l *Layout) Resolve() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved {
		return nil
	}

	fs, err := loadFonts()
	if err != nil {
		return err
	}

	b := &layoutBuilder{fonts: fs, y: padding}
	if err := b.build(l.input); err != nil {
		return fmt.Errorf("failed to lay out budget: %w", err)
	}

	height := int(b.y + padding + 0.5)
	if height < PageHeightPx {
		height = PageHeightPx
	}

	l.ops = b.ops
	l.height = height
	l.resolved = true
	close(l.done)
	return nil
}

type layoutBuilder struct {
	fonts *fontSet
	ops   []drawOp
	y     float64
}

const contentWidth = PageWidthPx - 2*padding

func (b *layoutBuilder) build(in LayoutInput) error {
	company := in.Company
	if company == nil {
		company = &models.CompanySettings{}
	}
	fields := in.Fields

	if err := b.header(fields, company, in.Logo); err != nil {
		return err
	}

	if err := b.section("Dados do Cliente", "Nome: "+orNA(fields.ClientName)); err != nil {
		return err
	}
	if err := b.section("Descrição dos Serviços", orNA(fields.Description)); err != nil {
		return err
	}
	if err := b.details(fields); err != nil {
		return err
	}
	if in.AttachmentName != "" {
		body := "O orçamento de materiais segue anexo nas páginas seguintes."
		if err := b.section(fmt.Sprintf("Anexo de Materiais (%s)", in.AttachmentName), body); err != nil {
			return err
		}
	}
	if err := b.section("Observações Adicionais", orNA(fields.AdditionalNotes)); err != nil {
		return err
	}

	return b.footer()
}

func (b *layoutBuilder) header(fields form.Fields, company *models.CompanySettings, logo image.Image) error {
	top := b.y
	textX := float64(padding)

	if logo != nil {
		w, h := containSize(logo.Bounds().Dx(), logo.Bounds().Dy(), logoMaxWidth, logoSize)
		b.ops = append(b.ops, drawOp{kind: opImage, x: padding, y: top + (logoSize-h)/2, w: w, h: h, img: logo})
		textX += w + 16
	} else {
		b.ops = append(b.ops, drawOp{kind: opBox, x: padding, y: top, w: logoSize, h: logoSize, fill: colorPlaceholder})
		b.ops = append(b.ops, drawOp{
			kind:  opText,
			x:     padding + logoSize/2,
			y:     top + (logoSize-styleSmall.lineHeight)/2,
			text:  "LOGO",
			style: textStyle{size: 14, lineHeight: 20, bold: true, color: colorPlaceText},
			align: alignCenter,
		})
		textX += logoSize + 16
	}

	left := []struct {
		text  string
		style textStyle
	}{
		{orDefault(company.CompanyName, "Nome da Empresa"), styleTitle},
		{orDefault(company.Address, "Endereço da Empresa"), styleSmall},
		{"CNPJ: " + orDefault(company.CNPJ, "XX.XXX.XXX/XXXX-XX"), styleSmall},
	}
	right := []struct {
		text  string
		style textStyle
	}{
		{"ORÇAMENTO Nº: " + fields.BudgetNumber, styleNumber},
		{"Data: " + formatDate(fields), styleSmall},
		{"Telefone: " + orDefault(company.Phone, "(XX) XXXX-XXXX"), styleSmall},
		{"Email: " + orDefault(company.Email, "contato@empresa.com"), styleSmall},
	}

	var leftHeight, rightHeight float64
	for _, l := range left {
		leftHeight += l.style.lineHeight
	}
	for _, r := range right {
		rightHeight += r.style.lineHeight
	}
	rowHeight := maxFloat(logoSize, maxFloat(leftHeight, rightHeight))

	y := top + (rowHeight-leftHeight)/2
	for _, l := range left {
		b.ops = append(b.ops, drawOp{kind: opText, x: textX, y: y, text: l.text, style: l.style})
		y += l.style.lineHeight
	}
	y = top + (rowHeight-rightHeight)/2
	for _, r := range right {
		b.ops = append(b.ops, drawOp{kind: opText, x: PageWidthPx - padding, y: y, text: r.text, style: r.style, align: alignRight})
		y += r.style.lineHeight
	}

	b.y = top + rowHeight + 16
	b.rule()
	b.y += sectionGap
	return nil
}

func (b *layoutBuilder) section(heading, body string) error {
	if err := b.paragraph(heading, styleHeading, padding, contentWidth); err != nil {
		return err
	}
	b.y += headingGap
	if err := b.paragraph(body, styleBody, padding, contentWidth); err != nil {
		return err
	}
	b.y += sectionGap
	return nil
}

func (b *layoutBuilder) details(fields form.Fields) error {
	if err := b.paragraph("Detalhes do Orçamento", styleHeading, padding, contentWidth); err != nil {
		return err
	}
	b.y += headingGap

	validity := notAvailable
	if fields.ValidityDays != "" {
		validity = fields.ValidityDays + " dias"
	}
	withMaterial := FormatBRL(form.ParseMoney(fields.ValueWithMaterial))
	withoutMaterial := FormatBRL(form.ParseMoney(fields.ValueWithoutMaterial))

	colWidth := float64(contentWidth-16) / 2
	top := b.y

	leftRows := [][2]string{
		{"Duração Estimada:", orNA(fields.Duration)},
		{"Validade do Orçamento:", validity},
		{"Forma de Pagamento:", orNA(fields.PaymentMethod)},
	}
	b.y = top
	for _, row := range leftRows {
		if err := b.labeled(row[0], row[1], padding, colWidth, alignLeft); err != nil {
			return err
		}
	}
	leftBottom := b.y

	rightRows := [][2]string{
		{"Valor com Material:", withMaterial},
		{"Valor sem Material:", withoutMaterial},
	}
	b.y = top
	for _, row := range rightRows {
		if err := b.labeled(row[0], row[1], PageWidthPx-padding, colWidth, alignRight); err != nil {
			return err
		}
	}

	b.y = maxFloat(leftBottom, b.y) + sectionGap
	return nil
}

// labeled emits "<bold label> value" on one line, wrapping the value below
// when it does not fit.
func (b *layoutBuilder) labeled(label, value string, x, width float64, a align) error {
	labelFace, err := b.fonts.face(styleLabel.size, true)
	if err != nil {
		return err
	}
	bodyFace, err := b.fonts.face(styleBody.size, false)
	if err != nil {
		return err
	}

	labelWidth := measure(labelFace, label+" ")
	valueWidth := measure(bodyFace, value)

	if labelWidth+valueWidth <= width {
		switch a {
		case alignRight:
			b.ops = append(b.ops,
				drawOp{kind: opText, x: x - valueWidth, y: b.y, text: label + " ", style: styleLabel, align: alignRight},
				drawOp{kind: opText, x: x, y: b.y, text: value, style: styleBody, align: alignRight},
			)
		default:
			b.ops = append(b.ops,
				drawOp{kind: opText, x: x, y: b.y, text: label + " ", style: styleLabel},
				drawOp{kind: opText, x: x + labelWidth, y: b.y, text: value, style: styleBody},
			)
		}
		b.y += styleBody.lineHeight
		return nil
	}

	left := x
	if a == alignRight {
		left = x - width
	}
	if err := b.paragraph(label, styleLabel, left, width); err != nil {
		return err
	}
	return b.paragraph(value, styleBody, left, width)
}

func (b *layoutBuilder) footer() error {
	b.y += 48 - sectionGap
	b.rule()
	b.y += 16
	b.ops = append(b.ops, drawOp{
		kind:  opText,
		x:     PageWidthPx / 2,
		y:     b.y,
		text:  "Agradecemos a preferência!",
		style: styleFooter,
		align: alignCenter,
	})
	b.y += styleFooter.lineHeight
	return nil
}

func (b *layoutBuilder) rule() {
	b.ops = append(b.ops, drawOp{kind: opRule, x: padding, y: b.y, w: contentWidth, h: 1, fill: colorBorder})
	b.y++
}

// paragraph wraps text to width, keeping explicit line breaks.
func (b *layoutBuilder) paragraph(text string, style textStyle, x, width float64) error {
	face, err := b.fonts.face(style.size, style.bold)
	if err != nil {
		return err
	}

	for _, line := range wrapText(text, width, func(s string) float64 { return measure(face, s) }) {
		b.ops = append(b.ops, drawOp{kind: opText, x: x, y: b.y, text: line, style: style})
		b.y += style.lineHeight
	}
	return nil
}

func wrapText(text string, width float64, measureFn func(string) float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if measureFn(candidate) <= width {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = ""
			for _, chunk := range breakWord(word, width, measureFn) {
				if current != "" {
					lines = append(lines, current)
				}
				current = chunk
			}
		}
		lines = append(lines, current)
	}
	return lines
}

// breakWord splits a word wider than width into chunks that fit.
func breakWord(word string, width float64, measureFn func(string) float64) []string {
	if measureFn(word) <= width {
		return []string{word}
	}

	var chunks []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && measureFn(string(next)) > width {
			chunks = append(chunks, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		chunks = append(chunks, string(cur))
	}
	return chunks
}

func formatDate(fields form.Fields) string {
	if fields.Date.IsZero() {
		return notAvailable
	}
	return fields.Date.Format("02/01/2006")
}

func orNA(s string) string {
	return orDefault(s, notAvailable)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// containSize fits w x h into maxW x maxH keeping the aspect ratio.
func containSize(w, h int, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := maxH / float64(h)
	if float64(w)*scale > maxW {
		scale = maxW / float64(w)
	}
	return float64(w) * scale, float64(h) * scale
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
