package service

import (
	"context"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/internal/repository"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/qrcode"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

type Surface string

const (
	SurfaceWeb   Surface = "web"
	SurfaceEmail Surface = "email"
)

// ParseSurface accepts "web", "email" or blank (web)
func ParseSurface(s string) (Surface, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(SurfaceWeb):
		return SurfaceWeb, nil
	case string(SurfaceEmail):
		return SurfaceEmail, nil
	}
	return "", fmt.Errorf("%w: unknown surface %q", apperrors.ErrInvalidRequest, s)
}

// DefaultTemplate is used whenever no template is configured.
const DefaultTemplate = `<p>For buying <strong>{product_name}</strong>, here is your reward:</p>
<p><strong>Automatic:</strong> scan the QR code or press the button to claim it.</p>
<p>{qr_code}</p>
<p><strong>Manual:</strong> go to the store, add the product to the cart and use this coupon code:</p>
<p style="font-size: 1.2em; border: 1px solid #ddd; display: inline-block; padding: 5px 10px; background: #eee;">{code}</p>
<p><a href="{url}" style="background: #4caf50; color: #fff; padding: 10px 15px; text-decoration: none; border-radius: 5px;">Claim now</a></p>`

const (
	containerOpen = `<div class="xsr-reward" style="background: #fdfdfd; border: 2px dashed #4caf50; padding: 20px; margin: 20px 0; text-align: center;">` +
		`<h2 style="color: #4caf50; margin-top: 0;">You have a gift!</h2>`
	containerClose = `</div>`
)

// Preview values, never taken from a real order
const (
	PreviewProductName = "Sample product"
	PreviewCode        = "XSR-SAMPLE01"
	PreviewURL         = "https://example.com/cart/?add-to-cart=0&coupon_code=XSR-SAMPLE01"
)

// TemplateValues holds the raw, unescaped placeholder values
type TemplateValues struct {
	ProductName string
	Code        string
	URL         string
	QRURL       string
}

// Substitute replaces the five placeholders literally. Values are inserted
// as given; anything else in the template is left alone.
func Substitute(tmpl string, v TemplateValues) string {
	return strings.NewReplacer(
		"{product_name}", v.ProductName,
		"{code}", v.Code,
		"{url}", v.URL,
		"{qr_code}", qrImageTag(v.QRURL),
		"{qr_url}", v.QRURL,
	).Replace(tmpl)
}

func qrImageTag(src string) string {
	if src == "" {
		return ""
	}
	return `<img src="` + src + `" alt="QR Code" width="150" height="150" style="border: 1px solid #ccc; padding: 5px;">`
}

func escapeValues(v TemplateValues) TemplateValues {
	return TemplateValues{
		ProductName: html.EscapeString(v.ProductName),
		Code:        html.EscapeString(v.Code),
		URL:         html.EscapeString(v.URL),
		QRURL:       html.EscapeString(v.QRURL),
	}
}

// Fragment is the rendered reward of one line item
type Fragment struct {
	LineItemID  int64  `json:"line_item_id"`
	ProductName string `json:"product_name"`
	HTML        string `json:"html"`
}

// Presenter renders issued rewards for the thank-you page and customer emails.
type Presenter struct {
	orders      repository.OrderRepository
	rewards     repository.IssuedRewardRepository
	qr          qrcode.Renderer
	template    string
	webPolicy   *bluemonday.Policy
	emailPolicy *bluemonday.Policy
}

func NewPresenter(orders repository.OrderRepository, rewards repository.IssuedRewardRepository, qr qrcode.Renderer, template string) *Presenter {
	return &Presenter{
		orders:      orders,
		rewards:     rewards,
		qr:          qr,
		template:    template,
		webPolicy:   allowStyles(bluemonday.UGCPolicy()),
		emailPolicy: allowStyles(emailPolicy()),
	}
}

// emailPolicy keeps the markup mail clients understand and only absolute
// http, https and mailto links.
func emailPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(false)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowElements("div", "span", "p", "br", "hr", "strong", "b", "em", "i", "u",
		"h1", "h2", "h3", "h4", "ul", "ol", "li",
		"table", "thead", "tbody", "tr", "td", "th", "center")
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowAttrs("align").OnElements("p", "div", "td", "th", "table")
	return p
}

func allowStyles(p *bluemonday.Policy) *bluemonday.Policy {
	p.AllowStyles("color", "background", "background-color", "border", "border-top",
		"border-radius", "padding", "margin", "margin-top", "text-align",
		"text-decoration", "font-size", "font-weight", "display").Globally()
	return p
}

func (p *Presenter) policy(s Surface) *bluemonday.Policy {
	if s == SurfaceEmail {
		return p.emailPolicy
	}
	return p.webPolicy
}

// RenderText fills the template and applies the surface filter. A blank
// template means the built-in default, which is trusted as is.
func (p *Presenter) RenderText(tmpl string, v TemplateValues, s Surface) string {
	escaped := escapeValues(v)
	if strings.TrimSpace(tmpl) == "" {
		return Substitute(DefaultTemplate, escaped)
	}
	return p.policy(s).Sanitize(Substitute(tmpl, escaped))
}

func wrap(body string) string {
	return containerOpen + body + containerClose
}

// Render returns one fragment per line item holding an issued reward.
// Orders without rewards produce no fragments.
func (p *Presenter) Render(ctx context.Context, order *model.Order, s Surface) ([]Fragment, error) {
	issued, err := p.rewards.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(issued) == 0 {
		return nil, nil
	}

	byLine := make(map[int64]*model.IssuedReward, len(issued))
	for _, r := range issued {
		if r.Issued() {
			byLine[r.LineItemID] = r
		}
	}

	var fragments []Fragment
	for _, item := range order.Items {
		r, ok := byLine[item.ID]
		if !ok {
			continue
		}
		body := p.RenderText(p.template, TemplateValues{
			ProductName: item.Name,
			Code:        r.Code,
			URL:         r.ClaimURL,
			QRURL:       p.qr.ImageURL(r.ClaimURL),
		}, s)
		fragments = append(fragments, Fragment{
			LineItemID:  item.ID,
			ProductName: item.Name,
			HTML:        wrap(body),
		})
	}
	return fragments, nil
}

// RenderOrder loads the order and renders it
func (p *Presenter) RenderOrder(ctx context.Context, orderID int64, s Surface) (*model.Order, []Fragment, error) {
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	fragments, err := p.Render(ctx, order, s)
	if err != nil {
		return nil, nil, err
	}
	return order, fragments, nil
}

// RenderPreview renders the mock reward. The override wins over the
// configured template; both blank means the default.
func (p *Presenter) RenderPreview(override string, s Surface) string {
	tmpl := override
	if strings.TrimSpace(tmpl) == "" {
		tmpl = p.template
	}
	return wrap(p.RenderText(tmpl, TemplateValues{
		ProductName: PreviewProductName,
		Code:        PreviewCode,
		URL:         PreviewURL,
		QRURL:       p.qr.ImageURL(PreviewURL),
	}, s))
}

// JoinFragments concatenates fragments for a single page or email body
func JoinFragments(fragments []Fragment) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(f.HTML)
	}
	return b.String()
}
