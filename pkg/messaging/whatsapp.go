// Package messaging builds outbound WhatsApp click-to-chat links. Nothing is sent from the server:
// the admin panel opens the link in a new browser context.
package messaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const baseURL = "https://wa.me/"

// ReadyNotice describes an order that the kitchen just finished.
type ReadyNotice struct {
	CustomerName    string
	ItemName        string
	Quantity        int
	Total           decimal.Decimal
	Transfer        bool   // payment by bank transfer rather than cash
	TransferAccount string // quoted when Transfer is set
}

// Text renders the customer-facing message for n.
func (n ReadyNotice) Text() string {
	item := n.ItemName
	if item == "" {
		item = "pedido"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s 👋🙂\n", n.CustomerName)
	b.WriteString("Tenemos excelentes noticias 🎉\n")
	fmt.Fprintf(&b, "Tu pedido *%s x%d* ya está listo 😄\n", item, n.Quantity)
	fmt.Fprintf(&b, "💰 Total a abonar: *$%s*\n", n.Total.StringFixed(2))
	if n.Transfer {
		b.WriteString("🏦 Datos para transferencia:\n")
		fmt.Fprintf(&b, "*%s*\n", n.TransferAccount)
		b.WriteString("Cuando hagas el pago avisanos por acá 🙏\n")
	} else {
		b.WriteString("Recordá tener el dinero justo al recibir tu pedido 🙏\n")
	}
	b.WriteString("¡Gracias por elegirnos! ❤️\n")
	b.WriteString("Que tengas un hermoso día ⭐")
	return b.String()
}

// Link returns a wa.me URL for phoneDigits (already normalized, country code included). An empty
// text yields a plain chat link.
func Link(phoneDigits, text string) string {
	if text == "" {
		return baseURL + phoneDigits
	}
	// QueryEscape turns spaces into '+', which wa.me shows literally.
	escaped := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return baseURL + phoneDigits + "?text=" + escaped
}
