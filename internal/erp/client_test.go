package erp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/resto/api/auth", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("test-token\n"))
	})
	for path, handler := range routes {
		mux.HandleFunc(path, handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestStockBalancesParsesExport(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/resto/api/v2/reports/balance/stores": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte(`<?xml version="1.0"?>
				<storeBalances>
					<balance><store>w1</store><product>flour</product><amount>10,5</amount><sum>52,5</sum></balance>
					<balance><store>w1</store><product>bad</product><amount>oops</amount><sum>1</sum></balance>
				</storeBalances>`))
		},
	})

	client := NewClient(server.URL, "ops", "secret")
	balances, err := client.StockBalances(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(balances) != 1 {
		t.Fatalf("expected malformed row dropped, got %d rows", len(balances))
	}
	if balances[0].Amount != 10.5 || balances[0].Value != 52.5 {
		t.Errorf("unexpected balance: %+v", balances[0])
	}
}

func TestReceiptsParsesInvoices(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/resto/api/documents/export/incomingInvoice": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("from") == "" || r.URL.Query().Get("to") == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`<?xml version="1.0"?>
				<incomingInvoiceDtoes>
					<document>
						<dateIncoming>2024-06-10</dateIncoming>
						<items>
							<item><productId>salt</productId><price>0,9</price></item>
							<item><productId>junk</productId><price>n/a</price></item>
						</items>
					</document>
				</incomingInvoiceDtoes>`))
		},
	})

	client := NewClient(server.URL, "ops", "secret")
	receipts, err := client.Receipts(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(receipts) != 1 || len(receipts[0].Lines) != 1 {
		t.Fatalf("expected one receipt with one parsed line, got %+v", receipts)
	}
	if receipts[0].Lines[0].UnitPrice != 0.9 {
		t.Errorf("expected price 0.9, got %v", receipts[0].Lines[0].UnitPrice)
	}
}

func TestAssemblyChartsParsesYieldAndWindow(t *testing.T) {
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/resto/api/v2/assemblyCharts/getAll": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<?xml version="1.0"?>
				<assemblyCharts>
					<assemblyChart>
						<assembledProductId>dough</assembledProductId>
						<dateFrom>2024-01-01</dateFrom>
						<dateTo>2024-12-31</dateTo>
						<assembledAmount>2,0</assembledAmount>
						<items>
							<item><productId>flour</productId><amount>0,5</amount></item>
						</items>
					</assemblyChart>
				</assemblyCharts>`))
		},
	})

	client := NewClient(server.URL, "ops", "secret")
	charts, err := client.AssemblyCharts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(charts) != 1 {
		t.Fatalf("expected one chart, got %d", len(charts))
	}

	chart := charts[0]
	if chart.BatchYield != 2.0 {
		t.Errorf("expected yield 2.0, got %v", chart.BatchYield)
	}
	if chart.EffectiveTo == nil {
		t.Error("expected effective_to parsed")
	}
	if len(chart.Ingredients) != 1 || chart.Ingredients[0].Quantity != 0.5 {
		t.Errorf("unexpected ingredients: %+v", chart.Ingredients)
	}
}

func TestProductsDecodesWindows1251AndCaches(t *testing.T) {
	name, err := charmap.Windows1251.NewEncoder().String("Мука пшеничная")
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	calls := 0
	server := newTestServer(t, map[string]http.HandlerFunc{
		"/resto/api/products": func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Write([]byte(`<?xml version="1.0" encoding="windows-1251"?>
				<products>
					<productDto><id>flour</id><name>` + name + `</name><productType>GOODS</productType><mainUnit>kg</mainUnit></productDto>
					<productDto><id>dough</id><name>Dough</name><productType>PREPARED</productType></productDto>
					<productDto><id>gone</id><name>Old</name><deleted>true</deleted></productDto>
				</products>`))
		},
	})

	client := NewClient(server.URL, "ops", "secret")

	products, err := client.Products(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("expected deleted product dropped, got %d", len(products))
	}
	if !strings.Contains(products[0].Name, "Мука") {
		t.Errorf("expected decoded cyrillic name, got %q", products[0].Name)
	}

	kinds, err := client.ItemKinds(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kinds["dough"] != "PREPARED" {
		t.Errorf("expected dough PREPARED, got %s", kinds["dough"])
	}

	if calls != 1 {
		t.Errorf("expected catalog served from cache, got %d upstream calls", calls)
	}

	client.InvalidateCatalog()
	if _, err := client.Products(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after invalidation, got %d calls", calls)
	}
}
