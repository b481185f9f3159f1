package notify

import (
	"fmt"
	"strings"

	"delivery-service/internal/models"
)

// Template names a message layout
type Template string

// Message templates. NewOrder goes to staff; the rest go to the customer.
const (
	TemplateReceived     Template = "order-received"
	TemplateDelivery     Template = "delivery"
	TemplateConfirmation Template = "order-confirmation"
	TemplateNewOrder     Template = "new-order"
)

// Time estimates used when settings carry none, in minutes
const (
	DefaultEstimatedTime   = "40"
	DefaultPreparationTime = "25-35"
	DefaultDeliveryTime    = "15-20"
)

// Compose builds the text for template. settings may be nil.
func Compose(template Template, order *models.Order, settings *models.Settings) (string, error) {
	switch template {
	case TemplateReceived:
		return ComposeReceived(order, settings), nil
	case TemplateDelivery:
		return ComposeDelivery(order, settings), nil
	case TemplateConfirmation:
		return ComposeConfirmation(order, settings), nil
	case TemplateNewOrder:
		return ComposeNewOrder(order), nil
	}
	return "", fmt.Errorf("unknown message template %q", template)
}

// ComposeReceived tells the customer the kitchen accepted the order
func ComposeReceived(order *models.Order, settings *models.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pedido #%d recebido!*\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "Olá, %s! Recebemos seu pedido e já estamos preparando.\n\n", order.CustomerName)
	writeSummary(&b, order)
	fmt.Fprintf(&b, "\nTempo estimado de preparo: %s minutos.\n",
		estimate(settings, func(s *models.Settings) string { return s.PreparationTime }, DefaultPreparationTime))
	writePix(&b, order, settings)
	writeSignature(&b, settings)
	return strings.TrimRight(b.String(), "\n")
}

// ComposeDelivery tells the customer the order is on its way
func ComposeDelivery(order *models.Order, settings *models.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pedido #%d saiu para entrega!*\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "Olá, %s! Seu pedido está a caminho.\n\n", order.CustomerName)
	writeSummary(&b, order)
	fmt.Fprintf(&b, "\nTempo estimado de entrega: %s minutos.\n",
		estimate(settings, func(s *models.Settings) string { return s.DeliveryTime }, DefaultDeliveryTime))
	writePix(&b, order, settings)
	writeSignature(&b, settings)
	return strings.TrimRight(b.String(), "\n")
}

// ComposeConfirmation restates the whole order back to the customer
func ComposeConfirmation(order *models.Order, settings *models.Settings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Pedido #%d confirmado!*\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "Olá, %s! Confira os detalhes do seu pedido:\n\n", order.CustomerName)
	writeSummary(&b, order)
	fmt.Fprintf(&b, "\nTempo estimado: %s minutos.\n",
		estimate(settings, func(s *models.Settings) string { return s.EstimatedTime }, DefaultEstimatedTime))
	writePix(&b, order, settings)
	writeSignature(&b, settings)
	return strings.TrimRight(b.String(), "\n")
}

// ComposeNewOrder alerts staff to a freshly placed order
func ComposeNewOrder(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Novo pedido #%d*\n\n", order.OrderNumber)
	fmt.Fprintf(&b, "*Cliente:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "*Telefone:* %s\n\n", order.CustomerPhone)
	writeSummary(&b, order)
	return strings.TrimRight(b.String(), "\n")
}

func writeSummary(b *strings.Builder, order *models.Order) {
	b.WriteString("*Itens:*\n")
	for _, item := range order.Items {
		fmt.Fprintf(b, "%dx %s - %s\n", item.Quantity, item.Name, FormatBRL(item.Subtotal()))
	}
	fmt.Fprintf(b, "\n*Total:* %s\n", FormatBRL(order.TotalAmount))
	fmt.Fprintf(b, "*Pagamento:* %s\n", order.PaymentMethod.Label())
	fmt.Fprintf(b, "*Endereço:* %s\n", order.CustomerAddress)
	if notes := order.NotesText(); notes != "" {
		fmt.Fprintf(b, "*Observações:* %s\n", notes)
	}
}

func writePix(b *strings.Builder, order *models.Order, settings *models.Settings) {
	if order.PaymentMethod != models.PaymentMethodPix || settings == nil || !settings.PixReady() {
		return
	}
	b.WriteString("\n*Pagamento via PIX*\n")
	fmt.Fprintf(b, "Chave PIX: %s\n", settings.PixKey)
	fmt.Fprintf(b, "Valor: %s\n", FormatBRL(order.TotalAmount))
	b.WriteString("Envie o comprovante por aqui após o pagamento.\n")
}

func writeSignature(b *strings.Builder, settings *models.Settings) {
	if settings == nil || settings.CompanyName == "" {
		return
	}
	fmt.Fprintf(b, "\n%s\n", settings.CompanyName)
}

func estimate(settings *models.Settings, field func(*models.Settings) string, fallback string) string {
	if settings == nil {
		return fallback
	}
	if v := strings.TrimSpace(field(settings)); v != "" {
		return v
	}
	return fallback
}
