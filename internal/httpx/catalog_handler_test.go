package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := orders.NewMemStore(nil,
		catalog.Item{ID: "it-sword", Alias: "sword", Name: "Iron Sword", PriceCents: 4999, Stock: 5},
		catalog.Item{ID: "it-arrow", Alias: "arrow", Name: "Arrow Bundle", PriceCents: 499, Stock: 0},
	)
	r := NewRouter()
	(&CatalogHandler{Catalog: store, Stock: store}).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListItems(t *testing.T) {
	srv := newCatalogServer(t)

	resp, err := http.Get(srv.URL + "/items")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []catalog.ItemChangedPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
}

func TestRestock(t *testing.T) {
	srv := newCatalogServer(t)

	t.Run("sets the stock level", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/items/arrow/stock", restockReq{Stock: 20})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var doc catalog.ItemChangedPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		assert.Equal(t, "it-arrow", doc.ItemID)
		assert.Equal(t, 20, doc.Stock)
	})

	t.Run("unknown alias", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/items/crossbow/stock", restockReq{Stock: 5})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("negative stock", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/items/sword/stock", restockReq{Stock: -1})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
