package staging

import (
	"testing"

	"backoffice/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name string) *domain.Product {
	return &domain.Product{ID: uuid.New(), Name: name, BarCode: "4800000000011", Price: decimal.NewFromInt(10)}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"price", "fields", "deactivate"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}
	_, err := ParseMode("archive")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestStageAndUnstage(t *testing.T) {
	w := NewWorksheet(ModeFields)
	p := product("Hammer")

	require.NoError(t, w.Stage(p))
	assert.ErrorIs(t, w.Stage(p), ErrAlreadyStaged)

	require.NoError(t, w.Edit(p.ID, FieldName, " "))
	assert.True(t, w.HasErrors())

	require.NoError(t, w.Unstage(p.ID))
	assert.Empty(t, w.Products)
	assert.Empty(t, w.Changes)
	assert.False(t, w.HasErrors())
	assert.ErrorIs(t, w.Unstage(p.ID), ErrNotStaged)
}

func TestEditTracksAndClearsErrors(t *testing.T) {
	w := NewWorksheet(ModeFields)
	p := product("Hammer")
	require.NoError(t, w.Stage(p))

	require.NoError(t, w.Edit(p.ID, FieldPrice, "-3"))
	assert.Equal(t, "Must be a positive number.", w.Errors[p.ID][FieldPrice])
	require.NoError(t, w.Edit(p.ID, FieldName, ""))
	assert.Len(t, w.Errors[p.ID], 2)

	require.NoError(t, w.Edit(p.ID, FieldPrice, "12.5"))
	require.NoError(t, w.Edit(p.ID, FieldName, "Claw Hammer"))
	assert.False(t, w.HasErrors())
	assert.Equal(t, "12.5", w.Changes[p.ID][FieldPrice])

	// clearing a price is not an error, it just drops the change from the payload
	require.NoError(t, w.Edit(p.ID, FieldPrice, ""))
	assert.False(t, w.HasErrors())

	assert.ErrorIs(t, w.Edit(uuid.New(), FieldName, "x"), ErrNotStaged)
	assert.ErrorIs(t, w.Edit(p.ID, "itemDesc", "x"), ErrUnknownField)
}

func TestModeRestrictsFields(t *testing.T) {
	p := product("Hammer")

	price := NewWorksheet(ModePrice)
	require.NoError(t, price.Stage(p))
	assert.NoError(t, price.Edit(p.ID, FieldPrice, "5"))
	assert.ErrorIs(t, price.Edit(p.ID, FieldName, "Mallet"), ErrUnknownField)

	deactivate := NewWorksheet(ModeDeactivate)
	require.NoError(t, deactivate.Stage(p))
	assert.ErrorIs(t, deactivate.Edit(p.ID, FieldPrice, "5"), ErrUnknownField)
	assert.Equal(t, []uuid.UUID{p.ID}, deactivate.ProductIDs())
}

func TestFieldUpdatesSkipBlankChanges(t *testing.T) {
	w := NewWorksheet(ModeFields)
	renamed, untouched, rebarcoded := product("A"), product("B"), product("C")
	for _, p := range []*domain.Product{renamed, untouched, rebarcoded} {
		require.NoError(t, w.Stage(p))
	}

	require.NoError(t, w.Edit(renamed.ID, FieldName, "  Alpha  "))
	require.NoError(t, w.Edit(renamed.ID, FieldPrice, "19.999"))
	require.NoError(t, w.Edit(untouched.ID, FieldBarCode, "   "))
	require.NoError(t, w.Edit(rebarcoded.ID, FieldBarCode, " 4800000000099 "))

	updates := w.FieldUpdates()
	require.Len(t, updates, 2)

	assert.Equal(t, renamed.ID, updates[0].ID)
	assert.Equal(t, "Alpha", *updates[0].Name)
	assert.Equal(t, "20", updates[0].Price.String())
	assert.Nil(t, updates[0].BarCode)

	assert.Equal(t, rebarcoded.ID, updates[1].ID)
	assert.Equal(t, "4800000000099", *updates[1].BarCode)
	assert.Nil(t, updates[1].Name)
}

func TestProperty_PriceValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a price edit is an error exactly when it is not a positive number", prop.ForAll(
		func(cents int64) bool {
			w := NewWorksheet(ModePrice)
			p := product("x")
			if err := w.Stage(p); err != nil {
				return false
			}
			value := decimal.New(cents, -2).String()
			if err := w.Edit(p.ID, FieldPrice, value); err != nil {
				return false
			}

			updates := w.PriceUpdates()
			if cents > 0 {
				return !w.HasErrors() && len(updates) == 1 && updates[0].Price.Equal(decimal.New(cents, -2))
			}
			return w.HasErrors() && len(updates) == 0
		},
		gen.Int64Range(-100000, 100000),
	))

	properties.Property("non-numeric prices are rejected", prop.ForAll(
		func(s string) bool {
			w := NewWorksheet(ModePrice)
			p := product("x")
			_ = w.Stage(p)
			_ = w.Edit(p.ID, FieldPrice, "x"+s)
			return w.HasErrors()
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
