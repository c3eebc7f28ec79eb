package commerce

import (
	"strings"

	"github.com/mythictransfers/supportdesk/internal/models"
)

const (
	longDateLayout  = "Monday, January 2, 2006"
	shortDateLayout = "1/2/2006"
)

// FormatOrder flattens a Shopify order into the record used in prompts.
func FormatOrder(o *Order) *models.OrderRecord {
	if o == nil {
		return nil
	}

	record := &models.OrderRecord{
		OrderNumber:     o.Name,
		OrderID:         o.ID,
		Status:          deriveStatus(o),
		CreatedAt:       o.CreatedAt.Format(longDateLayout),
		CustomerEmail:   o.Email,
		Total:           "$" + o.TotalPrice,
		Items:           make([]models.LineItem, 0, len(o.LineItems)),
		Note:            o.Note,
		Tags:            o.Tags,
		FinancialStatus: o.FinancialStatus,
	}
	if o.Customer != nil {
		record.CustomerName = fullName(o.Customer.FirstName, o.Customer.LastName)
	}
	for _, item := range o.LineItems {
		record.Items = append(record.Items, models.LineItem{
			Name:     item.Title,
			Quantity: item.Quantity,
			Variant:  item.VariantTitle,
		})
	}
	if o.ShippingAddress != nil {
		record.ShippingAddress = &models.ShippingAddress{
			City:  o.ShippingAddress.City,
			State: o.ShippingAddress.Province,
			Zip:   o.ShippingAddress.Zip,
		}
	}
	if len(o.Fulfillments) > 0 && o.Fulfillments[0].TrackingNumber != "" {
		f := o.Fulfillments[0]
		record.Tracking = &models.Tracking{
			Number:  f.TrackingNumber,
			Carrier: f.TrackingCompany,
			URL:     f.TrackingURL,
		}
	}
	return record
}

// FormatCustomer summarizes a customer together with their recent orders.
func FormatCustomer(c *Customer, recent []Order) *models.CustomerRecord {
	if c == nil {
		return nil
	}

	record := &models.CustomerRecord{
		Name:         fullName(c.FirstName, c.LastName),
		Email:        c.Email,
		TotalOrders:  c.OrdersCount,
		TotalSpent:   "$" + c.TotalSpent,
		CreatedAt:    c.CreatedAt.Format(shortDateLayout),
		Tags:         c.Tags,
		RecentOrders: make([]*models.OrderRecord, 0, recentOrderLimit),
	}
	for i := range recent {
		if i == recentOrderLimit {
			break
		}
		record.RecentOrders = append(record.RecentOrders, FormatOrder(&recent[i]))
	}
	return record
}

// deriveStatus: cancellation wins over fulfillment state.
func deriveStatus(o *Order) string {
	switch {
	case o.CancelledAt != nil:
		return models.OrderStatusCancelled
	case o.FulfillmentStatus == "fulfilled":
		return models.OrderStatusShipped
	case o.FulfillmentStatus == "partial":
		return models.OrderStatusPartiallyShipped
	default:
		return models.OrderStatusProcessing
	}
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
