package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
)

type fakeCatalog map[int64]string

func (c fakeCatalog) DeliveryDate(_ context.Context, id int64, _ language.Tag) (*models.DeliveryDate, error) {
	name, ok := c[id]
	if !ok {
		return nil, nil
	}
	return &models.DeliveryDate{ID: id, Name: name}, nil
}

type failingQuoter struct{}

func (failingQuoter) Quote(context.Context, *models.Order) (ShippingOption, error) {
	return ShippingOption{}, errors.New("correios unavailable")
}

// Friday 2026-10-16
var friday = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func TestLargestInteger(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"5 to 10 business days", 10, true},
		{"5 a 8 dias", 8, true},
		{"até 12 dias", 12, true},
		{"20 a 3", 20, true},
		{"prazo 15", 15, true},
		{"imediato", 0, false},
		{"", 0, false},
		{"0 dias", 0, false},
	}
	for _, tc := range cases {
		got, ok := LargestInteger(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestAddBusinessDays(t *testing.T) {
	got := AddBusinessDays(friday, 3, nil)
	assert.Equal(t, time.Wednesday, got.Weekday())
	assert.Equal(t, 21, got.Day())

	assert.Equal(t, friday, AddBusinessDays(friday, 0, nil))

	back := AddBusinessDays(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), -1, nil)
	assert.Equal(t, friday, back)
}

func TestAddBusinessDaysSkipsHolidays(t *testing.T) {
	cal, err := ParseHolidays([]string{"2026-10-19"})
	require.NoError(t, err)

	got := AddBusinessDays(friday, 1, cal)
	assert.Equal(t, "2026-10-20", got.Format("2006-01-02"))
}

func TestParseHolidaysRejectsBadDate(t *testing.T) {
	_, err := ParseHolidays([]string{"25/12/2026"})
	require.Error(t, err)
}

func TestEstimatePicksLargestWindow(t *testing.T) {
	est := Estimator{Catalog: fakeCatalog{1: "5 to 8 dias", 2: "até 12 dias"}}
	order := &models.Order{
		ID:             7,
		ShippingMethod: "Retirada",
		Items: []models.OrderItem{
			{ID: 1, ProductName: "Caneca", ManufacturerName: "Acme", DeliveryDateID: 1},
			{ID: 2, ProductName: "Quadro", ManufacturerName: "Moldura Fina", DeliveryDateID: 2},
		},
	}

	got, err := est.Estimate(context.Background(), order, friday)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Days)
	assert.Equal(t, "Moldura Fina", got.Item.ManufacturerName)
	assert.Equal(t, "até 12 dias", got.Window)
	assert.Equal(t, "2026-11-03", got.Deadline.Format("2006-01-02"))
	assert.Contains(t, got.Narrative, "Moldura Fina de até 12 dias")
	assert.Contains(t, got.Narrative, "03/11/2026")
	assert.NotContains(t, got.Narrative, "Correios:")
}

func TestEstimateKeepsFirstItemOnTie(t *testing.T) {
	est := Estimator{Catalog: fakeCatalog{1: "10 dias", 2: "3 a 10 dias"}}
	order := &models.Order{Items: []models.OrderItem{
		{ManufacturerName: "First", DeliveryDateID: 1},
		{ManufacturerName: "Second", DeliveryDateID: 2},
	}}

	got, err := est.Estimate(context.Background(), order, friday)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Item.ManufacturerName)
}

func TestEstimateNoApplicableWindow(t *testing.T) {
	est := Estimator{Catalog: fakeCatalog{1: "sob consulta"}}
	order := &models.Order{Items: []models.OrderItem{
		{DeliveryDateID: 1},
		{DeliveryDateID: 0},
		{DeliveryDateID: 99},
	}}

	_, err := est.Estimate(context.Background(), order, friday)
	require.ErrorIs(t, err, ErrNoApplicableWindow)
}

func TestEstimateAddsCarrierLineForPostalMethods(t *testing.T) {
	est := Estimator{
		Catalog:  fakeCatalog{1: "5 dias"},
		Carriers: NewTransitTable(map[string]string{"SEDEX": "2 a 4 dias úteis", "PAC": "6 a 9 dias úteis"}),
	}
	order := &models.Order{
		ShippingMethod: "Correios SEDEX",
		Items:          []models.OrderItem{{ManufacturerName: "Acme", DeliveryDateID: 1}},
	}

	got, err := est.Estimate(context.Background(), order, friday)
	require.NoError(t, err)
	assert.Contains(t, got.Narrative, "Correios: SEDEX - 2 a 4 dias úteis após a postagem")
}

func TestEstimateSwallowsCarrierFailure(t *testing.T) {
	est := Estimator{
		Catalog:  fakeCatalog{1: "5 dias"},
		Carriers: failingQuoter{},
	}
	order := &models.Order{
		ShippingMethod: "PAC",
		Items:          []models.OrderItem{{ManufacturerName: "Acme", DeliveryDateID: 1}},
	}

	got, err := est.Estimate(context.Background(), order, friday)
	require.NoError(t, err)
	assert.NotContains(t, got.Narrative, "Correios:")
	assert.Contains(t, got.Narrative, "Data máxima para postar nos correios: 23/10/2026")
}

func TestTransitTablePrefersLongestService(t *testing.T) {
	table := NewTransitTable(map[string]string{"SEDEX": "2 dias", "SEDEX 10": "1 dia", "": "x"})

	opt, err := table.Quote(context.Background(), &models.Order{ShippingMethod: "Correios SEDEX 10"})
	require.NoError(t, err)
	assert.Equal(t, "SEDEX 10", opt.Name)

	_, err = table.Quote(context.Background(), &models.Order{ShippingMethod: "Motoboy"})
	require.ErrorIs(t, err, ErrNoCarrierQuote)
}
