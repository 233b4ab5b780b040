package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"PagSeguroNotify/internal/models"
	"PagSeguroNotify/internal/store"
)

var ErrMalformedReference = errors.New("malformed transaction reference")

// ErrOrderNotFound is the store sentinel, so errors.Is matches across layers.
var ErrOrderNotFound = store.ErrOrderNotFound

const guidReferenceLength = 36

type OrderLookup interface {
	GetByGUID(ctx context.Context, guid uuid.UUID) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
}

// OrderResolver maps a transaction reference to a local order. References
// are either the order GUID or its numeric id.
type OrderResolver struct {
	Orders OrderLookup
}

func (r OrderResolver) Resolve(ctx context.Context, reference string) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	if len(reference) == guidReferenceLength {
		guid, perr := uuid.Parse(reference)
		if perr != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedReference, reference)
		}
		order, err = r.Orders.GetByGUID(ctx, guid)
	} else {
		id, perr := strconv.ParseInt(strings.TrimSpace(reference), 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedReference, reference)
		}
		order, err = r.Orders.GetByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrOrderNotFound, reference)
		}
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %q", ErrOrderNotFound, reference)
	}
	return order, nil
}
