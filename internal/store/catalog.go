package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
)

// DeliveryDate returns the delivery-window label, localized for lang when a
// translation exists (exact tag first, then the base language).
func (s *Store) DeliveryDate(ctx context.Context, id int64, lang language.Tag) (*models.DeliveryDate, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT d.id, COALESCE((
			SELECT l.name FROM delivery_date_locales l
			WHERE l.delivery_date_id = d.id AND l.language = ANY($2)
			ORDER BY array_position($2, l.language)
			LIMIT 1
		), d.name)
		FROM delivery_dates d WHERE d.id=$1
	`, id, localeCandidates(lang))

	var dd models.DeliveryDate
	if err := row.Scan(&dd.ID, &dd.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &dd, nil
}

func localeCandidates(lang language.Tag) []string {
	if lang == language.Und {
		return []string{}
	}
	out := []string{lang.String()}
	if base, conf := lang.Base(); conf != language.No {
		if b := base.String(); b != out[0] {
			out = append(out, b)
		}
	}
	return out
}
