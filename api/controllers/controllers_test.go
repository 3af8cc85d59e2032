package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drinkroute/distribution-backend/api/middleware"
	"github.com/drinkroute/distribution-backend/internal/debts"
	"github.com/drinkroute/distribution-backend/internal/returns"
	"github.com/drinkroute/distribution-backend/internal/shoporders"
	"github.com/drinkroute/distribution-backend/internal/stock"
	"github.com/drinkroute/distribution-backend/internal/transfer"
	"github.com/drinkroute/distribution-backend/pkg/config"
	"github.com/drinkroute/distribution-backend/pkg/enums"
	pkgerrors "github.com/drinkroute/distribution-backend/pkg/errors"
	"github.com/drinkroute/distribution-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withRoute(req *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func asDriver(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), id.String(), enums.UserRoleDriver))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

type stubShopOrders struct {
	got shoporders.CreateShopOrderInput
	err error
}

func (s *stubShopOrders) CreateShopOrder(_ context.Context, input shoporders.CreateShopOrderInput) (*shoporders.ShopOrderDTO, error) {
	s.got = input
	if s.err != nil {
		return nil, s.err
	}
	return &shoporders.ShopOrderDTO{ID: uuid.New()}, nil
}

func (s *stubShopOrders) GetShopOrder(context.Context, transfer.Actor, uuid.UUID) (*shoporders.ShopOrderDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop order not found")
}

func (s *stubShopOrders) ListShopOrders(context.Context, shoporders.ListShopOrdersInput) (*shoporders.ListResult, error) {
	return &shoporders.ListResult{}, nil
}

func TestDriverCreateShopOrder(t *testing.T) {
	driverID := uuid.New()
	shopID := uuid.New()
	productID := uuid.New()

	t.Run("maps lines and defaults role to goods", func(t *testing.T) {
		svc := &stubShopOrders{}
		body := `{"shop_id":"` + shopID.String() + `","paid_amount":"600","lines":[` +
			`{"product_id":"` + productID.String() + `","quantity":8},` +
			`{"product_id":"` + productID.String() + `","quantity":2,"role":"bonus"}]}`
		req := asDriver(httptest.NewRequest(http.MethodPost, "/api/v1/driver/shop-orders", strings.NewReader(body)), driverID)
		rec := httptest.NewRecorder()

		DriverCreateShopOrder(svc, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, driverID, svc.got.Actor.UserID)
		assert.Equal(t, shopID, svc.got.ShopID)
		assert.True(t, decimal.NewFromInt(600).Equal(svc.got.PaidAmount))
		require.Len(t, svc.got.Lines, 2)
		assert.Equal(t, enums.LineRoleGoods, svc.got.Lines[0].Role)
		assert.Equal(t, enums.LineRoleBonus, svc.got.Lines[1].Role)
	})

	t.Run("empty lines pass through as a debt payment", func(t *testing.T) {
		svc := &stubShopOrders{}
		body := `{"shop_id":"` + shopID.String() + `","paid_amount":120,"lines":[]}`
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID)
		rec := httptest.NewRecorder()

		DriverCreateShopOrder(svc, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, svc.got.Lines)
	})

	t.Run("negative paid amount rejected before service", func(t *testing.T) {
		svc := &stubShopOrders{}
		body := `{"shop_id":"` + shopID.String() + `","paid_amount":"-1","lines":[]}`
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID)
		rec := httptest.NewRecorder()

		DriverCreateShopOrder(svc, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, uuid.Nil, svc.got.ShopID)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		body := `{"shop_id":"` + shopID.String() + `","paid_amount":"0","lines":[{"product_id":"` + productID.String() + `","quantity":1,"role":"gift"}]}`
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID)
		rec := httptest.NewRecorder()

		DriverCreateShopOrder(&stubShopOrders{}, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service shortage surfaces as 409", func(t *testing.T) {
		svc := &stubShopOrders{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")}
		body := `{"shop_id":"` + shopID.String() + `","paid_amount":"0","lines":[{"product_id":"` + productID.String() + `","quantity":12}]}`
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID)
		rec := httptest.NewRecorder()

		DriverCreateShopOrder(svc, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeInsufficientStock), errorCode(t, rec))
	})

	t.Run("missing actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		DriverCreateShopOrder(&stubShopOrders{}, testLogger()).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type stubReturns struct {
	manager []returns.CreateReturnInput
	shop    []returns.CreateReturnInput
}

func (s *stubReturns) CreateManagerReturn(_ context.Context, input returns.CreateReturnInput) (*returns.ReturnDTO, error) {
	s.manager = append(s.manager, input)
	return &returns.ReturnDTO{ID: uuid.New()}, nil
}

func (s *stubReturns) CreateShopReturn(_ context.Context, input returns.CreateReturnInput) (*returns.ReturnDTO, error) {
	s.shop = append(s.shop, input)
	return &returns.ReturnDTO{ID: uuid.New()}, nil
}

func (s *stubReturns) GetReturn(context.Context, transfer.Actor, uuid.UUID) (*returns.ReturnDTO, error) {
	return &returns.ReturnDTO{}, nil
}

func (s *stubReturns) ListReturns(context.Context, returns.ListReturnsInput) (*returns.ListResult, error) {
	return &returns.ListResult{}, nil
}

func TestCreateReturnRoutesToKind(t *testing.T) {
	driverID := uuid.New()
	body := `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":3}]}`
	svc := &stubReturns{}

	rec := httptest.NewRecorder()
	DriverCreateManagerReturn(svc, testLogger()).ServeHTTP(rec, asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	DriverCreateShopReturn(svc, testLogger()).ServeHTTP(rec, asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), driverID))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, svc.manager, 1)
	require.Len(t, svc.shop, 1)
	assert.Equal(t, enums.LineRoleReturn, svc.manager[0].Lines[0].Role)
	assert.Equal(t, enums.LineRoleReturn, svc.shop[0].Lines[0].Role)
}

func TestListReturnsRejectsUnknownKind(t *testing.T) {
	req := asDriver(httptest.NewRequest(http.MethodGet, "/?kind=warehouse", nil), uuid.New())
	rec := httptest.NewRecorder()
	ListReturns(&stubReturns{}, testLogger()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubDebts struct {
	got debts.PayDebtInput
}

func (s *stubDebts) PayPartyDebt(_ context.Context, input debts.PayDebtInput) (*debts.PaymentDTO, error) {
	s.got = input
	return &debts.PaymentDTO{ID: uuid.New(), Amount: input.Amount}, nil
}

func (s *stubDebts) ListPayments(context.Context, debts.ListPaymentsInput) (*debts.ListResult, error) {
	return &debts.ListResult{}, nil
}

func TestPayPartyDebt(t *testing.T) {
	partyID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &stubDebts{}
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"50"}`)), uuid.New())
		req = withRoute(req, map[string]string{"partyType": "shop", "partyId": partyID.String()})
		rec := httptest.NewRecorder()

		PayPartyDebt(svc, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, enums.PartyTypeShop, svc.got.PartyType)
		assert.Equal(t, partyID, svc.got.PartyID)
		assert.True(t, decimal.NewFromInt(50).Equal(svc.got.Amount))
	})

	t.Run("bad party type", func(t *testing.T) {
		req := asDriver(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":"50"}`)), uuid.New())
		req = withRoute(req, map[string]string{"partyType": "supplier", "partyId": partyID.String()})
		rec := httptest.NewRecorder()

		PayPartyDebt(&stubDebts{}, testLogger()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	})
}

func TestResolveHolder(t *testing.T) {
	driverID := uuid.New()
	driver := transfer.Actor{UserID: driverID, Role: enums.UserRoleDriver}
	admin := transfer.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	cases := []struct {
		name  string
		actor transfer.Actor
		raw   string
		want  stock.Holder
		code  pkgerrors.Code
	}{
		{name: "admin default main", actor: admin, raw: "", want: stock.Main()},
		{name: "admin any driver", actor: admin, raw: driverID.String(), want: stock.Driver(driverID)},
		{name: "driver default self", actor: driver, raw: "", want: stock.Driver(driverID)},
		{name: "driver self prefixed", actor: driver, raw: "driver:" + driverID.String(), want: stock.Driver(driverID)},
		{name: "driver main forbidden", actor: driver, raw: "main", code: pkgerrors.CodeForbidden},
		{name: "driver other forbidden", actor: driver, raw: uuid.NewString(), code: pkgerrors.CodeForbidden},
		{name: "garbage", actor: admin, raw: "nope", code: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveHolder(tc.actor, tc.raw)
			if tc.code != "" {
				require.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

type stubRevoker struct {
	jti string
	exp time.Time
}

func (s *stubRevoker) Revoke(_ context.Context, jti string, exp time.Time) error {
	s.jti, s.exp = jti, exp
	return nil
}

func TestAuthLogoutRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	AuthLogout(&stubRevoker{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{}, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), stubPinger{}, stubPinger{err: errors.New("dial tcp")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-Distro-Env"))
}
