package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

func TestListItemRowProduct(t *testing.T) {
	item := ListItem{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}}

	_, ok := NewListItemRow(item).Product()
	require.False(t, ok)

	_, ok = NewListItemRow(item, RelatedProduct{}).Product()
	require.False(t, ok, "a NULL product id means the join came back empty")

	first := RelatedProduct{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Name: "Arroz", Unit: "kg", IsActive: true}
	second := RelatedProduct{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Name: "Feijao"}
	got, ok := NewListItemRow(item, first, second).Product()
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestParseUUIDRoundTrip(t *testing.T) {
	raw := uuid.NewString()
	id, err := ParseUUID("  " + raw + " ")
	require.NoError(t, err)
	require.Equal(t, raw, UUIDString(id))

	_, err = ParseUUID("not-a-uuid")
	require.Error(t, err)

	require.Equal(t, "", UUIDString(pgtype.UUID{}))
}
