package cashwyre

// Request fields shared by every call
type baseRequest struct {
	AppID        string `json:"appId"`
	BusinessCode string `json:"businessCode"`
	RequestID    string `json:"requestId"`
}

// GetCardsRequest lists the cards of a customer
type GetCardsRequest struct {
	baseRequest
	CustomerCode  string `json:"customerCode"`
	CustomerEmail string `json:"customerEmail"`
}

// GetTransactionsRequest lists the transactions of a card
type GetTransactionsRequest struct {
	baseRequest
	CardCode string `json:"cardCode"`
}

// CardData as returned by getCards. Field spelling follows the remote API.
type CardData struct {
	Code                  string  `json:"code"`
	CustomerName          string  `json:"customerName"`
	CustomerFirstName     string  `json:"customerFirstName"`
	CustomerLastName      string  `json:"customerLastName"`
	CustomerEmail         string  `json:"customerEmail"`
	CardBrand             string  `json:"cardBrand"`
	CardType              string  `json:"cardType"`
	Reference             string  `json:"reference"`
	Last4                 string  `json:"last4"`
	CardName              string  `json:"cardName"`
	ExpiryOn              string  `json:"expiryOn"`
	ValidMonthYear        string  `json:"validMonthYear"`
	Status                string  `json:"status"`
	CardBalance           float64 `json:"cardBalance"`
	CardNumber            string  `json:"cardNumber"`
	CardNumberMasked      string  `json:"cardNumberMaxked"`
	CVV2                  string  `json:"cvV2"`
	CVV2Masked            string  `json:"cvV2Maxed"`
	BillingAddressCity    string  `json:"billingAddressCity"`
	BillingAddressStreet  string  `json:"billingAddressStreet"`
	BillingAddressCountry string  `json:"billingAddressCountry"`
	BillingAddressZipCode string  `json:"billingAddressZipCode"`
	CustomerCode          string  `json:"customerCode"`
	CreatedOn             string  `json:"createdOn"`
}

// TransactionData as returned by getCardTransactions
type TransactionData struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	Status        string  `json:"status"`
	Reference     string  `json:"reference"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee"`
	Currency      string  `json:"currency"`
	CreatedOn     string  `json:"createdOn"`
	DRCR          string  `json:"drcr"`
	Category      string  `json:"category"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
}

type cardsResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    []CardData `json:"data"`
}

type transactionsResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    []TransactionData `json:"data"`
}
