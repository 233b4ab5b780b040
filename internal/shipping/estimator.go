package shipping

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
)

var ErrNoApplicableWindow = errors.New("no order item has a delivery window")

// Catalog resolves the delivery-window label attached to a product.
type Catalog interface {
	DeliveryDate(ctx context.Context, id int64, lang language.Tag) (*models.DeliveryDate, error)
}

type Estimate struct {
	Days      int
	Deadline  time.Time
	Item      models.OrderItem
	Window    string
	Narrative string
}

type Estimator struct {
	Catalog  Catalog
	Carriers CarrierQuoter
	Calendar Calendar
	Language language.Tag
	Logger   *zap.Logger
}

// Estimate finds the item with the longest delivery window and derives the
// latest date the order can be handed to the carrier.
func (e Estimator) Estimate(ctx context.Context, order *models.Order, now time.Time) (*Estimate, error) {
	lang := e.orderLanguage(order)

	var best *Estimate
	for _, item := range order.Items {
		if item.DeliveryDateID == 0 {
			continue
		}
		dd, err := e.Catalog.DeliveryDate(ctx, item.DeliveryDateID, lang)
		if err != nil {
			return nil, fmt.Errorf("delivery date %d: %w", item.DeliveryDateID, err)
		}
		if dd == nil {
			continue
		}
		days, ok := LargestInteger(dd.Name)
		if !ok {
			continue
		}
		if best == nil || days > best.Days {
			best = &Estimate{Days: days, Item: item, Window: dd.Name}
		}
	}
	if best == nil {
		return nil, ErrNoApplicableWindow
	}

	best.Deadline = AddBusinessDays(now, best.Days, e.Calendar)
	best.Narrative = e.narrative(ctx, order, best)
	return best, nil
}

func (e Estimator) narrative(ctx context.Context, order *models.Order, est *Estimate) string {
	maker := est.Item.ManufacturerName
	if maker == "" {
		maker = est.Item.ProductName
	}

	var b strings.Builder
	b.WriteString("Recebemos a liberação do pagamento pelo PagSeguro e será dado andamento no seu pedido.\n\n")
	fmt.Fprintf(&b, "Lembramos que o maior prazo é da fabricante %s de %s\n\n", maker, est.Window)
	b.WriteString("*OBS: Caso o seu pedido tenha produtos com prazos diferentes, o prazo de entrega a ser considerado será o maior.\n\n")
	fmt.Fprintf(&b, "Data máxima para postar nos correios: %s\n", est.Deadline.Format("02/01/2006"))

	if IsPostalCarrier(order.ShippingMethod) && e.Carriers != nil {
		opt, err := e.Carriers.Quote(ctx, order)
		if err != nil {
			e.logger().Warn("carrier transit estimate failed",
				zap.Int64("order_id", order.ID),
				zap.String("shipping_method", order.ShippingMethod),
				zap.Error(err),
			)
		} else {
			fmt.Fprintf(&b, "Correios: %s - %s após a postagem\n", opt.Name, opt.Description)
		}
	}
	return b.String()
}

func (e Estimator) orderLanguage(order *models.Order) language.Tag {
	if order.Language != "" {
		if tag, err := language.Parse(order.Language); err == nil {
			return tag
		}
	}
	if e.Language != language.Und {
		return e.Language
	}
	return language.BrazilianPortuguese
}

func (e Estimator) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// IsPostalCarrier reports whether the shipping method is a Correios service.
func IsPostalCarrier(method string) bool {
	return strings.Contains(method, "PAC") || strings.Contains(method, "SEDEX")
}

// LargestInteger returns the greatest positive integer literal in text.
// "5 a 10 dias úteis" yields 10.
func LargestInteger(text string) (int, bool) {
	best := 0
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if n, err := strconv.Atoi(text[start:end]); err == nil && n > best {
			best = n
		}
		start = -1
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return best, best > 0
}
