package triage

import (
	"fmt"
	"strings"

	"github.com/mythictransfers/supportdesk/internal/models"
)

const classificationTemplate = `Analyze this customer email and return JSON only:

From: %s
Subject: %s
Body: %s

Return this exact JSON structure:
{
  "intent": "order_status|damage_claim|refund_request|how_to_press|file_help|tiktok_question|combine_orders|general_question|complaint|other",
  "urgency": "low|medium|high",
  "sentiment": "positive|neutral|frustrated|angry",
  "has_order_number": true/false,
  "potential_scam_indicators": true/false,
  "summary": "one sentence summary"
}`

func classificationPrompt(msg *models.InboundMessage) string {
	return fmt.Sprintf(classificationTemplate, msg.From, msg.Subject, msg.Body)
}

func draftPrompt(msg *models.InboundMessage, order *models.OrderRecord, customer *models.CustomerRecord) string {
	var b strings.Builder
	b.WriteString("## INCOMING CUSTOMER EMAIL\n\n")
	fmt.Fprintf(&b, "From: %s\nSubject: %s\n\nMessage:\n%s\n", msg.From, msg.Subject, msg.Body)
	b.WriteString(orderBlock(order))
	b.WriteString(customerBlock(customer))
	b.WriteString("\n\n---\nWrite a helpful response to this customer. Answer with the JSON object described in the output format.")
	return b.String()
}

func orderBlock(order *models.OrderRecord) string {
	if order == nil {
		return ""
	}

	items := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}

	var b strings.Builder
	b.WriteString("\n\n## ORDER DATA FOUND\n")
	fmt.Fprintf(&b, "Order: %s\nStatus: %s\nPlaced: %s\nTotal: %s\nItems: %s\n",
		order.OrderNumber, order.Status, order.CreatedAt, order.Total, strings.Join(items, ", "))
	if order.Tracking != nil {
		fmt.Fprintf(&b, "Tracking: %s - %s\nTrack here: %s", order.Tracking.Carrier, order.Tracking.Number, order.Tracking.URL)
	} else {
		b.WriteString("Tracking: Not yet shipped")
	}
	if order.Note != "" {
		fmt.Fprintf(&b, "\nCustomer Note: %s", order.Note)
	}
	return b.String()
}

func customerBlock(customer *models.CustomerRecord) string {
	if customer == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n## CUSTOMER HISTORY\n")
	fmt.Fprintf(&b, "Name: %s\nTotal Orders: %d\nTotal Spent: %s\nCustomer Since: %s",
		customer.Name, customer.TotalOrders, customer.TotalSpent, customer.CreatedAt)
	if customer.Tags != "" {
		fmt.Fprintf(&b, "\nTags: %s", customer.Tags)
	}
	return b.String()
}
