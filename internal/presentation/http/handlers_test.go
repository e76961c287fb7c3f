package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appgw "github.com/Zhima-Mochi/minishop-tracing/internal/application/gateway"
	appinv "github.com/Zhima-Mochi/minishop-tracing/internal/application/inventory"
	appwh "github.com/Zhima-Mochi/minishop-tracing/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-tracing/internal/domain/failure"
	domfraud "github.com/Zhima-Mochi/minishop-tracing/internal/domain/fraud"
	dominv "github.com/Zhima-Mochi/minishop-tracing/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-tracing/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-tracing/internal/domain/payment"
	domwh "github.com/Zhima-Mochi/minishop-tracing/internal/domain/warehouse"
)

func serve(rt *Router, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type fakeOrders struct {
	result domorder.Result
	err    error
	got    domorder.Request
	order  *domorder.Order
}

func (f *fakeOrders) Execute(_ context.Context, req domorder.Request) (domorder.Result, error) {
	f.got = req
	return f.result, f.err
}

func (f *fakeOrders) Get(_ context.Context, id string) (*domorder.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, domorder.ErrNotFound
	}
	return f.order, nil
}

func TestOrderHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusOK},
		{"validation", failure.New(failure.Validation, "bad"), http.StatusBadRequest},
		{"capacity", failure.New(failure.Capacity, "Insufficient inventory"), http.StatusBadRequest},
		{"fraud", failure.New(failure.Fraud, "declined"), http.StatusBadRequest},
		{"downstream", failure.New(failure.Downstream, "Error contacting inventory service"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &fakeOrders{result: domorder.Result{Status: domorder.ResultFailure, Message: "m", TraceID: "abc"}, err: tc.err}
			rt := NewRouter("order", nil, nil)
			NewOrderHandler(orders).Register(rt)

			w := serve(rt, http.MethodPost, "/order", `{"items":[{"item_id":"sku001","quantity":2}],"payment_method":"credit_card","amount":20,"user_id":"u1"}`)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "abc", decodeBody(t, w)["trace_id"])
			require.Len(t, orders.got.Items, 1)
			assert.Equal(t, "sku001", orders.got.Items[0].SKU)
			assert.True(t, orders.got.Amount.Equal(decimal.NewFromInt(20)))
		})
	}
}

func TestOrderHandlerMalformedBody(t *testing.T) {
	rt := NewRouter("order", nil, nil)
	NewOrderHandler(&fakeOrders{}).Register(rt)

	w := serve(rt, http.MethodPost, "/order", "{not json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "failure", body["status"])
	assert.Equal(t, "validation", body["category"])
}

func TestOrderHandlerAcceptsNumericUserID(t *testing.T) {
	for _, userID := range []string{`42`, `"42"`} {
		orders := &fakeOrders{result: domorder.Result{Status: domorder.ResultSuccess}}
		rt := NewRouter("order", nil, nil)
		NewOrderHandler(orders).Register(rt)

		w := serve(rt, http.MethodPost, "/order",
			`{"items":[{"item_id":"sku001","quantity":1}],"payment_method":"card","amount":5,"user_id":`+userID+`}`)

		assert.Equal(t, http.StatusOK, w.Code, userID)
		assert.Equal(t, "42", orders.got.UserID, userID)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	o := &domorder.Order{ID: "o-1", SKU: "sku001", Quantity: 1, Status: domorder.StatusCompleted}
	rt := NewRouter("order", nil, nil)
	NewOrderHandler(&fakeOrders{order: o}).Register(rt)

	w := serve(rt, http.MethodGet, "/order/o-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o-1", decodeBody(t, w)["order_id"])

	w = serve(rt, http.MethodGet, "/order/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type fakeInventory struct {
	reply dominv.Reply
	err   error
	got   appinv.CheckAndReserveInput
}

func (f *fakeInventory) Execute(_ context.Context, in appinv.CheckAndReserveInput) (dominv.Reply, error) {
	f.got = in
	return f.reply, f.err
}

func (f *fakeInventory) Lookup(_ context.Context, sku string) (*dominv.Record, error) {
	if sku != "sku001" {
		return nil, dominv.ErrNotFound
	}
	return &dominv.Record{SKU: sku, Available: 7}, nil
}

func TestInventoryHandler(t *testing.T) {
	t.Run("reserved", func(t *testing.T) {
		inv := &fakeInventory{reply: dominv.Reply{Outcome: dominv.OutcomeSuccess, Message: dominv.MessageReserved}}
		rt := NewRouter("inventory", nil, nil)
		NewInventoryHandler(inv).Register(rt)

		w := serve(rt, http.MethodPost, "/inventory/check", `{"item_id":"sku001","quantity":3}`)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, true, body["stock_committed"])
		assert.Equal(t, appinv.CheckAndReserveInput{SKU: "sku001", Quantity: 3}, inv.got)
	})

	t.Run("insufficient", func(t *testing.T) {
		inv := &fakeInventory{
			reply: dominv.Reply{Outcome: dominv.OutcomeInsufficient, Message: dominv.MessageInsufficient},
			err:   failure.New(failure.Capacity, dominv.MessageInsufficient),
		}
		rt := NewRouter("inventory", nil, nil)
		NewInventoryHandler(inv).Register(rt)

		w := serve(rt, http.MethodPost, "/inventory/check", `{"item_id":"sku001","quantity":300}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, dominv.MessageInsufficient, body["message"])
		assert.Equal(t, "capacity", body["category"])
		assert.Equal(t, false, body["stock_committed"])
	})

	failures := []struct {
		name      string
		reply     dominv.Reply
		err       error
		status    int
		committed bool
	}{
		{
			name:      "warehouse rejected",
			reply:     dominv.Reply{Outcome: dominv.OutcomeDownstreamFailure, Message: dominv.MessageWarehouseFailed},
			err:       failure.New(failure.Capacity, dominv.MessageWarehouseFailed),
			status:    http.StatusBadRequest,
			committed: true,
		},
		{
			name:      "warehouse unreachable",
			reply:     dominv.Reply{Outcome: dominv.OutcomeDownstreamFailure, Message: dominv.MessageWarehouseUnreachable},
			err:       failure.New(failure.Downstream, dominv.MessageWarehouseUnreachable),
			status:    http.StatusInternalServerError,
			committed: true,
		},
		{
			name:   "store failed",
			reply:  dominv.Reply{Outcome: dominv.OutcomeStoreFailure, Message: appinv.MessageStoreFailed},
			err:    failure.New(failure.Downstream, appinv.MessageStoreFailed),
			status: http.StatusInternalServerError,
		},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			rt := NewRouter("inventory", nil, nil)
			NewInventoryHandler(&fakeInventory{reply: tc.reply, err: tc.err}).Register(rt)

			w := serve(rt, http.MethodPost, "/inventory/check", `{"item_id":"sku001","quantity":1}`)
			assert.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tc.reply.Message, body["message"])
			assert.Equal(t, tc.committed, body["stock_committed"])
		})
	}

	t.Run("lookup", func(t *testing.T) {
		rt := NewRouter("inventory", nil, nil)
		NewInventoryHandler(&fakeInventory{}).Register(rt)

		w := serve(rt, http.MethodGet, "/inventory/items/sku001", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 7, decodeBody(t, w)["available_quantity"])
		assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "/inventory/items/nope", "").Code)
	})
}

type fakeWarehouse struct {
	err error
	got appwh.ReserveInput
}

func (f *fakeWarehouse) Execute(_ context.Context, in appwh.ReserveInput) (*appwh.ReserveResult, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &appwh.ReserveResult{Message: "Reserved 2 of item sku001"}, nil
}

func (f *fakeWarehouse) Stock(_ context.Context, sku, location string) (*domwh.Record, error) {
	if location != "Warehouse-A" {
		return nil, domwh.ErrNotFound
	}
	return &domwh.Record{SKU: sku, Location: location, Available: 8, Reserved: 2}, nil
}

func TestWarehouseHandler(t *testing.T) {
	wh := &fakeWarehouse{}
	rt := NewRouter("warehouse", nil, nil)
	NewWarehouseHandler(wh).Register(rt)

	w := serve(rt, http.MethodPost, "/warehouse/reserve", `{"item_id":"sku001","quantity":2}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Reserved 2 of item sku001", decodeBody(t, w)["message"])
	assert.Equal(t, "", wh.got.Location)

	wh.err = failure.New(failure.Capacity, appwh.MessageInsufficient)
	w = serve(rt, http.MethodPost, "/warehouse/reserve", `{"item_id":"sku001","quantity":200,"location":"Warehouse-A"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appwh.MessageInsufficient, decodeBody(t, w)["message"])
	assert.Equal(t, "Warehouse-A", wh.got.Location)

	w = serve(rt, http.MethodGet, "/warehouse/stock/sku001?location=Warehouse-A", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decodeBody(t, w)["reserved_quantity"])
	assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "/warehouse/stock/sku001?location=B", "").Code)
}

type fakePayments struct {
	reply dompay.Reply
	err   error
	got   dompay.Request
}

func (f *fakePayments) Execute(_ context.Context, req dompay.Request) (dompay.Reply, error) {
	f.got = req
	return f.reply, f.err
}

func (f *fakePayments) Authorization(_ context.Context, orderID string) (*dompay.Authorization, error) {
	if orderID != "42" {
		return nil, dompay.ErrNotFound
	}
	return &dompay.Authorization{OrderID: orderID, Status: "authorized"}, nil
}

func TestPaymentHandler(t *testing.T) {
	cases := []struct {
		name   string
		reply  dompay.Reply
		err    error
		status int
	}{
		{"authorized", dompay.Reply{Outcome: dompay.OutcomeAuthorized, Message: dompay.MessageAuthorized}, nil, http.StatusOK},
		{"invalid", dompay.Reply{Outcome: dompay.OutcomeInvalid, Message: dompay.MessageInvalid, Category: "validation"},
			failure.New(failure.Validation, dompay.MessageInvalid), http.StatusBadRequest},
		{"fraud", dompay.Reply{Outcome: dompay.OutcomeDeclined, Message: dompay.MessageFraudDeclined, Category: "fraud"},
			failure.New(failure.Fraud, dompay.MessageFraudDeclined), http.StatusForbidden},
		{"fraud unreachable", dompay.Reply{Outcome: dompay.OutcomeDownstreamFailure, Message: dompay.MessageFraudUnreachable, Category: "downstream"},
			failure.New(failure.Downstream, dompay.MessageFraudUnreachable), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pay := &fakePayments{reply: tc.reply, err: tc.err}
			rt := NewRouter("payment", nil, nil)
			NewPaymentHandler(pay).Register(rt)

			w := serve(rt, http.MethodPost, "/payment/authorize", `{"order_id":42,"user_id":"u1","payment_method":"credit_card","amount":"19.99"}`)

			assert.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tc.reply.Message, body["message"])
			assert.Equal(t, "42", body["order_id"])
			assert.Equal(t, "42", pay.got.OrderID)
			assert.Equal(t, "19.99", pay.got.Amount.String())
		})
	}
}

func TestPaymentHandlerAuthorizationLookup(t *testing.T) {
	rt := NewRouter("payment", nil, nil)
	NewPaymentHandler(&fakePayments{}).Register(rt)

	assert.Equal(t, http.StatusOK, serve(rt, http.MethodGet, "/payment/authorizations/42", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(rt, http.MethodGet, "/payment/authorizations/7", "").Code)
}

type fakeFraud struct {
	verdict domfraud.Verdict
}

func (f fakeFraud) Execute(context.Context, domfraud.Request) (domfraud.Verdict, error) {
	return f.verdict, nil
}

func TestFraudHandler(t *testing.T) {
	for _, fraudulent := range []bool{false, true} {
		rt := NewRouter("fraud", nil, nil)
		NewFraudHandler(fakeFraud{verdict: domfraud.Verdict{Fraudulent: fraudulent}}).Register(rt)

		w := serve(rt, http.MethodPost, "/fraud/check", `{"order_id":"o-1","user_id":"u1","payment_method":"credit_card","amount":10}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, domfraud.Verdict{Fraudulent: fraudulent}.Status(), decodeBody(t, w)["status"])
	}

	rt := NewRouter("fraud", nil, nil)
	NewFraudHandler(fakeFraud{}).Register(rt)
	assert.Equal(t, http.StatusBadRequest, serve(rt, http.MethodPost, "/fraud/check", "nope").Code)
}

type fakeSubmitter struct {
	relay appgw.Relay
	err   error
	got   []byte
}

func (f *fakeSubmitter) Execute(_ context.Context, body []byte) (appgw.Relay, error) {
	f.got = body
	return f.relay, f.err
}

func TestGatewayRelaysVerbatim(t *testing.T) {
	sub := &fakeSubmitter{relay: appgw.Relay{Status: http.StatusBadRequest, Body: []byte(`{"status":"failure","message":"Insufficient inventory","trace_id":"t"}`)}}
	rt := NewRouter("gateway", nil, nil)
	NewGatewayHandler(sub).Register(rt)

	payload := `{"items":[{"item_id":"sku001","quantity":200}]}`
	w := serve(rt, http.MethodPost, "/api/order", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(sub.relay.Body), w.Body.String())
	assert.Equal(t, payload, string(sub.got))
}

func TestGatewayOrderUnreachable(t *testing.T) {
	sub := &fakeSubmitter{err: failure.Wrap(failure.Downstream, appgw.MessageOrderUnreachable, errors.New("dial tcp: refused"))}
	rt, _, _ := tracedRouter(t, "gateway")
	NewGatewayHandler(sub).Register(rt)

	w := serve(rt, http.MethodPost, "/api/order", "{}")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, appgw.MessageOrderUnreachable, body["message"])
	assert.NotEmpty(t, body["trace_id"])
}

