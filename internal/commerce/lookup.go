package commerce

import (
	"context"

	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/models"
	"go.uber.org/zap"
)

const (
	customerOrderFetchLimit = 5
	recentOrderLimit        = 3
)

// Lookup enriches triage with store data. Lookups never fail the caller:
// provider errors are logged and reported as "not found".
type Lookup struct {
	client *Client
	log    *zap.Logger
}

// NewLookup wraps client. A nil client disables every lookup.
func NewLookup(client *Client, log *zap.Logger) *Lookup {
	return &Lookup{client: client, log: logger.Named(log, "commerce")}
}

// Enabled reports whether a store client is configured.
func (l *Lookup) Enabled() bool {
	return l != nil && l.client != nil
}

// OrderByNumber finds an order by its display number. The bare name is
// tried first, then the "#"-prefixed form stores use for order names.
func (l *Lookup) OrderByNumber(ctx context.Context, number string) *models.OrderRecord {
	if !l.Enabled() || number == "" {
		return nil
	}

	orders, err := l.client.OrdersByName(ctx, number)
	if err != nil {
		l.log.Warn("Failed to look up order", zap.String("order_number", number), zap.Error(err))
		return nil
	}
	if len(orders) == 0 {
		orders, err = l.client.OrdersByName(ctx, "#"+number)
		if err != nil {
			l.log.Warn("Failed to look up order", zap.String("order_number", "#"+number), zap.Error(err))
			return nil
		}
	}
	if len(orders) == 0 {
		return nil
	}
	return FormatOrder(&orders[0])
}

// CustomerContext returns the customer's profile and recent orders, or nil.
func (l *Lookup) CustomerContext(ctx context.Context, email string) *models.CustomerRecord {
	if !l.Enabled() || email == "" {
		return nil
	}

	customers, err := l.client.SearchCustomers(ctx, "email:"+email)
	if err != nil {
		l.log.Warn("Failed to search customers", zap.String("email", email), zap.Error(err))
		return nil
	}
	if len(customers) == 0 {
		return nil
	}

	orders, err := l.client.OrdersByEmail(ctx, email, customerOrderFetchLimit)
	if err != nil {
		l.log.Warn("Failed to list customer orders", zap.String("email", email), zap.Error(err))
		orders = nil
	}
	return FormatCustomer(&customers[0], orders)
}
