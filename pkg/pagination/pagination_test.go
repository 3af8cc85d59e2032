package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, 7, NormalizeLimit(7))
	require.Equal(t, MaxLimit, NormalizeLimit(1000))
	require.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 1500, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	require.ErrorIs(t, err, errMalformedCursor)

	_, err = ParseCursor(base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-03-01T09:00:00Z"}`)))
	require.ErrorIs(t, err, errMalformedCursor)
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	now := time.Now().UTC()
	rows := []row{{uuid.New(), now}, {uuid.New(), now.Add(-time.Minute)}, {uuid.New(), now.Add(-2 * time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, key)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	c, err := ParseCursor(next)
	require.NoError(t, err)
	require.Equal(t, rows[1].id, c.ID)

	page, next = Trim(rows, 3, key)
	require.Len(t, page, 3)
	require.Empty(t, next)
}

func TestScopeRejectsBadCursor(t *testing.T) {
	_, err := Scope(Params{Cursor: "%%%"})
	require.Error(t, err)

	scope, err := Scope(Params{Limit: 5})
	require.NoError(t, err)
	require.NotNil(t, scope)
}
