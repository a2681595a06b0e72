package contacts

import (
	"context"
	"log"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/jmoiron/sqlx"
)

// ============================================================================
// Contact Tags
// ============================================================================

// PostgresTagger etiquetas de contactos sobre la tabla contact_tags
type PostgresTagger struct {
	db *sqlx.DB
}

var _ engine.ContactTagger = (*PostgresTagger)(nil)

func NewPostgresTagger(db *sqlx.DB) *PostgresTagger {
	return &PostgresTagger{db: db}
}

func (t *PostgresTagger) AddTag(ctx context.Context, phoneNumber, tag string) error {
	query := `
		INSERT INTO contact_tags (phone_number, tag, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phone_number, tag) DO NOTHING`

	_, err := t.db.ExecContext(ctx, query, phoneNumber, tag)
	if err != nil {
		return errx.Wrap(err, "failed to add contact tag", errx.TypeInternal).
			WithDetail("phone_number", phoneNumber).
			WithDetail("tag", tag)
	}

	log.Printf("🏷️ Added tag %q to %s", tag, phoneNumber)
	return nil
}

func (t *PostgresTagger) RemoveTag(ctx context.Context, phoneNumber, tag string) error {
	query := `DELETE FROM contact_tags WHERE phone_number = $1 AND tag = $2`

	_, err := t.db.ExecContext(ctx, query, phoneNumber, tag)
	if err != nil {
		return errx.Wrap(err, "failed to remove contact tag", errx.TypeInternal).
			WithDetail("phone_number", phoneNumber).
			WithDetail("tag", tag)
	}

	log.Printf("🏷️ Removed tag %q from %s", tag, phoneNumber)
	return nil
}

// Tags lista las etiquetas de un contacto
func (t *PostgresTagger) Tags(ctx context.Context, phoneNumber string) ([]string, error) {
	query := `SELECT tag FROM contact_tags WHERE phone_number = $1 ORDER BY tag`

	var tags []string
	if err := t.db.SelectContext(ctx, &tags, query, phoneNumber); err != nil {
		return nil, errx.Wrap(err, "failed to list contact tags", errx.TypeInternal).
			WithDetail("phone_number", phoneNumber)
	}
	return tags, nil
}
