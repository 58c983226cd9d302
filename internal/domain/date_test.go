package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"abfit/coach-api/internal/domain"
)

func TestNewDate_DropsClock(t *testing.T) {
	d := domain.NewDate(time.Date(2025, 12, 1, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2025-12-01", d.String())
	assert.Equal(t, domain.MustParseDate("2025-12-01"), d)
}

func TestDate_JSON(t *testing.T) {
	type doc struct {
		When domain.Date `json:"when"`
	}

	raw, err := json.Marshal(doc{When: domain.MustParseDate("2026-02-28")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2026-02-28"}`, string(raw))

	var back doc
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "2026-02-28", back.When.String())

	assert.Error(t, json.Unmarshal([]byte(`{"when":"28/02/2026"}`), &back))
}

func TestDate_BSON(t *testing.T) {
	type doc struct {
		When domain.Date `bson:"when"`
	}

	raw, err := bson.Marshal(doc{When: domain.MustParseDate("2026-03-01")})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", bson.Raw(raw).Lookup("when").StringValue())

	var back doc
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, "2026-03-01", back.When.String())
}

func TestDate_AddDaysCrossesMonth(t *testing.T) {
	assert.Equal(t, "2026-03-02", domain.MustParseDate("2026-02-27").AddDays(3).String())
}
