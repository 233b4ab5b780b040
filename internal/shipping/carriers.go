package shipping

import (
	"context"
	"errors"
	"sort"
	"strings"

	"PagSeguroNotify/internal/models"
)

var ErrNoCarrierQuote = errors.New("no carrier transit estimate for shipping method")

type ShippingOption struct {
	Name        string
	Description string
}

// CarrierQuoter estimates the carrier transit time after dispatch.
type CarrierQuoter interface {
	Quote(ctx context.Context, order *models.Order) (ShippingOption, error)
}

// TransitTable quotes from a configured service → transit description map,
// e.g. {"SEDEX": "2 a 4 dias úteis"}.
type TransitTable struct {
	services []string
	transit  map[string]string
}

func NewTransitTable(transit map[string]string) TransitTable {
	services := make([]string, 0, len(transit))
	clean := make(map[string]string, len(transit))
	for k, v := range transit {
		k = strings.TrimSpace(k)
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		services = append(services, k)
		clean[k] = strings.TrimSpace(v)
	}
	// longest service name first so "SEDEX 10" wins over "SEDEX"
	sort.Slice(services, func(i, j int) bool {
		if len(services[i]) != len(services[j]) {
			return len(services[i]) > len(services[j])
		}
		return services[i] < services[j]
	})
	return TransitTable{services: services, transit: clean}
}

func (t TransitTable) Quote(_ context.Context, order *models.Order) (ShippingOption, error) {
	method := strings.ToUpper(order.ShippingMethod)
	for _, svc := range t.services {
		if strings.Contains(method, strings.ToUpper(svc)) {
			return ShippingOption{Name: svc, Description: t.transit[svc]}, nil
		}
	}
	return ShippingOption{}, ErrNoCarrierQuote
}
