package erp

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"rasoi/internal/pricing"
)

const (
	productCacheKey = "products"
	productCacheTTL = 10 * time.Minute
)

var errUnauthorized = errors.New("erp: unauthorized")

// Client talks to the POS/ERP REST+XML export API. It implements the
// pricing feed interfaces (stock balances, receipts, assembly charts,
// item catalog). All calls are read-only.
type Client struct {
	baseURL  string
	login    string
	password string

	http    *http.Client
	limiter *rate.Limiter

	// Product catalog barely changes within a sync window; cache it
	// instead of re-exporting thousands of rows per call. The cache
	// is owned here and flushed explicitly, never ambient state.
	cache *gocache.Cache

	// Feeds are fetched concurrently during a sync; the token is
	// shared across those calls.
	mu    sync.Mutex
	token string
}

func NewClient(baseURL, login, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		login:    login,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		cache:    gocache.New(productCacheTTL, 30*time.Minute),
	}
}

// InvalidateCatalog drops the cached product list. Call after known
// catalog edits so the next sync sees them immediately.
func (c *Client) InvalidateCatalog() {
	c.cache.Delete(productCacheKey)
}

// --------------------------------------------------
// AUTH
// --------------------------------------------------
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	q := url.Values{}
	q.Set("login", c.login)
	q.Set("pass", c.password)

	body, err := c.rawGet(ctx, "/resto/api/auth?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("erp auth: %w", err)
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", fmt.Errorf("erp auth: empty token")
	}

	c.token = token
	return token, nil
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	if q == nil {
		q = url.Values{}
	}
	q.Set("key", token)

	body, err := c.rawGet(ctx, path+"?"+q.Encode())
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			// Token expired server-side; next call re-authenticates.
			c.clearToken()
		}
		return err
	}

	dec := xml.NewDecoder(strings.NewReader(string(body)))
	dec.CharsetReader = charsetReader

	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("erp decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) rawGet(ctx context.Context, pathAndQuery string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erp: status %d", resp.StatusCode)
	}

	return body, nil
}

// --------------------------------------------------
// STOCK BALANCES
// --------------------------------------------------
func (c *Client) StockBalances(ctx context.Context) ([]pricing.StockBalance, error) {
	var payload balanceListXML

	q := url.Values{}
	q.Set("timestamp", time.Now().Format("2006-01-02T15:04:05"))

	if err := c.get(ctx, "/resto/api/v2/reports/balance/stores", q, &payload); err != nil {
		return nil, err
	}

	balances := make([]pricing.StockBalance, 0, len(payload.Balances))
	for _, b := range payload.Balances {
		amount, okA := parseFloat(b.Amount)
		value, okV := parseFloat(b.Sum)
		if !okA || !okV {
			continue
		}
		balances = append(balances, pricing.StockBalance{
			LocationID: b.Store,
			ItemID:     b.Product,
			Amount:     amount,
			Value:      value,
		})
	}

	return balances, nil
}

// --------------------------------------------------
// INCOMING RECEIPTS
// --------------------------------------------------
func (c *Client) Receipts(ctx context.Context, from, to time.Time) ([]pricing.Receipt, error) {
	var payload invoiceListXML

	q := url.Values{}
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))

	if err := c.get(ctx, "/resto/api/documents/export/incomingInvoice", q, &payload); err != nil {
		return nil, err
	}

	receipts := make([]pricing.Receipt, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		date, ok := parseDate(doc.DateIncoming)
		if !ok {
			continue
		}

		receipt := pricing.Receipt{Date: date}
		for _, item := range doc.Items {
			price, ok := parseFloat(item.Price)
			if !ok || item.ProductID == "" {
				continue
			}
			receipt.Lines = append(receipt.Lines, pricing.ReceiptLine{
				ItemID:    item.ProductID,
				UnitPrice: price,
			})
		}

		receipts = append(receipts, receipt)
	}

	return receipts, nil
}

// --------------------------------------------------
// ASSEMBLY CHARTS
// --------------------------------------------------
func (c *Client) AssemblyCharts(ctx context.Context) ([]pricing.RecipeChart, error) {
	var payload chartListXML

	if err := c.get(ctx, "/resto/api/v2/assemblyCharts/getAll", nil, &payload); err != nil {
		return nil, err
	}

	charts := make([]pricing.RecipeChart, 0, len(payload.Charts))
	for _, raw := range payload.Charts {
		from, ok := parseDate(raw.DateFrom)
		if !ok || raw.AssembledProductID == "" {
			continue
		}

		chart := pricing.RecipeChart{
			OutputItemID:  raw.AssembledProductID,
			EffectiveFrom: from,
		}

		if to, ok := parseDate(raw.DateTo); ok {
			chart.EffectiveTo = &to
		}
		if yield, ok := parseFloat(raw.AssembledAmount); ok {
			chart.BatchYield = yield
		}

		for _, item := range raw.Items {
			qty, ok := parseFloat(item.Amount)
			if !ok || item.ProductID == "" {
				continue
			}
			chart.Ingredients = append(chart.Ingredients, pricing.IngredientLine{
				ItemID:   item.ProductID,
				Quantity: qty,
			})
		}

		charts = append(charts, chart)
	}

	return charts, nil
}

// --------------------------------------------------
// ITEM CATALOG
// --------------------------------------------------

// Product is one catalog entry, kept for sheet naming and kind lookup.
type Product struct {
	ID   string
	Name string
	Unit string
	Kind pricing.ItemKind
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	if cached, ok := c.cache.Get(productCacheKey); ok {
		return cached.([]Product), nil
	}

	var payload productListXML

	if err := c.get(ctx, "/resto/api/products", nil, &payload); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		if p.Deleted || p.ID == "" {
			continue
		}
		products = append(products, Product{
			ID:   p.ID,
			Name: p.Name,
			Unit: p.MainUnit,
			Kind: kindOf(p.ProductType),
		})
	}

	c.cache.Set(productCacheKey, products, gocache.DefaultExpiration)

	return products, nil
}

func (c *Client) ItemKinds(ctx context.Context) (map[string]pricing.ItemKind, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]pricing.ItemKind, len(products))
	for _, p := range products {
		kinds[p.ID] = p.Kind
	}
	return kinds, nil
}

func kindOf(productType string) pricing.ItemKind {
	switch strings.ToUpper(strings.TrimSpace(productType)) {
	case "GOODS":
		return pricing.KindRawGood
	case "PREPARED":
		return pricing.KindPrepared
	case "DISH":
		return pricing.KindDish
	default:
		return pricing.KindRawGood
	}
}
