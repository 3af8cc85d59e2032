package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
)

type lineBody struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"gt=0"`
	Price     *decimal.Decimal `json:"price,omitempty" validate:"omitempty,money"`
}

type orderBody struct {
	Lines []lineBody      `json:"lines" validate:"required,min=1,dive"`
	Paid  decimal.Decimal `json:"paid_amount" validate:"money"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":0,"price":"-1"}],"paid_amount":"-5"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dest orderBody
	err := DecodeJSONBody(req, &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	require.Equal(t, "must be greater than 0", details["lines[0].quantity"])
	require.Equal(t, "must be a non-negative amount", details["lines[0].price"])
	require.Equal(t, "must be a non-negative amount", details["paid_amount"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lines":[],"extra":1}`))
	var dest orderBody
	require.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &dest), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsNumbersAndStrings(t *testing.T) {
	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":2,"price":12.5}],"paid_amount":"25"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest orderBody
	require.NoError(t, DecodeJSONBody(req, &dest))
	require.True(t, decimal.RequireFromString("12.5").Equal(*dest.Lines[0].Price))
	require.True(t, decimal.NewFromInt(25).Equal(dest.Paid))
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&cursor=abc", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	require.Equal(t, 10, params.Limit)
	require.Equal(t, "abc", params.Cursor)

	_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=500", nil))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("dispatchId", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := URLParamUUID(req, "dispatchId")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = URLParamUUID(req, "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abc  ", 0))
	require.Equal(t, "ab", SanitizeString("abcdef", 2))
	// "é" is two bytes; a 2-byte cap must not split it.
	require.Equal(t, "a", SanitizeString("aé", 2))
	require.Equal(t, "aé", SanitizeString("aé", 3))
}
