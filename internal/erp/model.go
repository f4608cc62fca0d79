package erp

// XML payload shapes for the POS/ERP export endpoints. Numeric fields
// arrive as strings ("1 234,50" style included) and are coerced with
// the defensive parser; a bad number means "missing", never a failed
// sync.

type productListXML struct {
	Products []productXML `xml:"productDto"`
}

type productXML struct {
	ID          string `xml:"id"`
	Name        string `xml:"name"`
	ProductType string `xml:"productType"`
	MainUnit    string `xml:"mainUnit"`
	Deleted     bool   `xml:"deleted"`
}

type balanceListXML struct {
	Balances []balanceXML `xml:"balance"`
}

type balanceXML struct {
	Store   string `xml:"store"`
	Product string `xml:"product"`
	Amount  string `xml:"amount"`
	Sum     string `xml:"sum"`
}

type invoiceListXML struct {
	Documents []invoiceXML `xml:"document"`
}

type invoiceXML struct {
	DateIncoming string           `xml:"dateIncoming"`
	Status       string           `xml:"status"`
	Items        []invoiceItemXML `xml:"items>item"`
}

type invoiceItemXML struct {
	ProductID string `xml:"productId"`
	Price     string `xml:"price"`
}

type chartListXML struct {
	Charts []chartXML `xml:"assemblyChart"`
}

type chartXML struct {
	AssembledProductID string         `xml:"assembledProductId"`
	DateFrom           string         `xml:"dateFrom"`
	DateTo             string         `xml:"dateTo"`
	AssembledAmount    string         `xml:"assembledAmount"`
	Items              []chartItemXML `xml:"items>item"`
}

type chartItemXML struct {
	ProductID string `xml:"productId"`
	Amount    string `xml:"amount"`
}
