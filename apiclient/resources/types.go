package resources

import "encoding/json"

type Exchange struct {
	ID      int    `json:"id"`
	LogoURL string `json:"logoUrl"`
	Name    string `json:"name"`
}

type CsvSettings struct {
	AllowChangeDateTimezoneType bool    `json:"allowChangeDateTimezoneType"`
	DefaultDateTimezoneType     *string `json:"defaultDateTimezoneType"`
}

type AddressSettings struct {
	MinLength int `json:"minLength"`
	MaxLength int `json:"maxLength"`
}

type APISettings struct {
	HasAPIKey                bool    `json:"hasApiKey"`
	HasAPIKeySecret          bool    `json:"hasApiKeySecret"`
	HasAPIKeyPassphrase      bool    `json:"hasApiKeyPassphrase"`
	MaskedAPIKey             *string `json:"maskedApiKey"`
	MaskedAPISecret          *string `json:"maskedApiSecret"`
	MaskedAPIPassPhrase      *string `json:"maskedApiPassPhrase"`
	APIKeyDisplayName        string  `json:"apiKeyDisplayName"`
	APISecretDisplayName     string  `json:"apiSecretDisplayName"`
	APIPassPhraseDisplayName string  `json:"apiPassPhraseDisplayName"`
}

// ImportConfig describes one way of importing an exchange's history. Exactly one of
// the settings blocks is set, matching ImportType ("CSV", "Address" or "API").
type ImportConfig struct {
	ImportType            string           `json:"importType"`
	ImportName            string           `json:"importName"`
	ImportHTMLDescription string           `json:"importHtmlDescription"`
	ExchangeID            int              `json:"exchangeId"`
	ExchangeImportTypeID  int              `json:"exchangeImportTypeId"`
	UserFYearID           int              `json:"userFYearId"`
	CsvSettings           *CsvSettings     `json:"csvSettings"`
	AddressSettings       *AddressSettings `json:"addressSettings"`
	APISettings           *APISettings     `json:"apiSettings"`
}

type TransactionImport struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	ExternalIdentifier string `json:"externalIdentifier"`
	CreatedAtUTC       string `json:"createdAtUtc"`
	Status             string `json:"status"`
	StatusDetails      string `json:"statusDetails"`
	TxCount            *int   `json:"txCount"`
	CanDisplayProgress bool   `json:"canDisplayProgress"`
	CanRequeue         bool   `json:"canRequeue"`
}

type TransactionMetadata struct {
	MinFromDateUTC             string            `json:"minFromDateUtc"`
	MaxToDateUTC               string            `json:"maxToDateUtc"`
	SubExchangesLookup         map[string]string `json:"subExchangesLookup"`
	TagsLookup                 map[string]string `json:"tagsLookup"`
	SymbolOrCurrencyLookup     []string          `json:"symbolOrCurrencyLookup"`
	CanShowSubExchangeDropdown bool              `json:"canShowSubExchangeDropdown"`
}

type Transaction struct {
	ID                      int             `json:"id"`
	ExchangeName            string          `json:"exchangeName"`
	ExchangeID              *int            `json:"exchangeId,omitempty"`
	SubExchangeName         string          `json:"subExchangeName"`
	TxDateUTC               string          `json:"txDateUtc"`
	TxDateLocal             string          `json:"txDateLocal"`
	TradeType               int             `json:"tradeType"`
	TradeTypeDisplay        string          `json:"tradeTypeDisplay"`
	RecordTypeDisplay       string          `json:"recordTypeDisplay"`
	Symbol                  string          `json:"symbol"`
	SymbolContractAddress   string          `json:"symbolContractAddress"`
	SymbolTokenID           string          `json:"symbolTokenId"`
	Currency                string          `json:"currency"`
	CurrencyContractAddress string          `json:"currencyContractAddress"`
	CurrencyTokenID         string          `json:"currencyTokenId"`
	Qty                     float64         `json:"qty"`
	Net                     float64         `json:"net"`
	Fee                     float64         `json:"fee"`
	FeeCoin                 *string         `json:"feeCoin"`
	FeeContractAddress      string          `json:"feeContractAddress"`
	OrderNo                 string          `json:"orderNo"`
	OrderNoURL              string          `json:"orderNoUrl"`
	OtherOrderNoInfo        json.RawMessage `json:"otherOrderNoInfo"`
	Tags                    []string        `json:"tags"`
	Notes                   string          `json:"notes"`
}

// Page is the paged list envelope used by the list endpoints.
type Page[T any] struct {
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage,omitempty"`
	Results     []T `json:"results"`
}

type CoinInfo struct {
	LogoURL               string  `json:"logoUrl"`
	ExchangeName          string  `json:"exchangeName"`
	ExchangeID            int     `json:"exchangeId"`
	Coin                  string  `json:"coin"`
	CoinName              string  `json:"coinName"`
	CoinContractAddress   string  `json:"coinContractAddress"`
	PossibleSpam          bool    `json:"possibleSpam"`
	MarkedAsSpam          bool    `json:"markedAsSpam"`
	FirstSellTxIdentifier *string `json:"firstSellTxIdentifier"`
	FirstBuyTxIdentifier  *string `json:"firstBuyTxIdentifier"`
	LogoBase64String      *string `json:"logoBase64String"`
}

type SpamMark struct {
	ExchangeID          int    `json:"exchangeId"`
	Coin                string `json:"coin"`
	CoinContractAddress string `json:"coinContractAddress"`
	IsSpam              bool   `json:"isSpam"`
}

// Filters carries the lookup tables offered by list filter endpoints.
type Filters struct {
	SourcesLookup map[string]string `json:"sourcesLookup"`
}

type Country struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LocalCurrency string `json:"localCurrency"`
	IsComingSoon  bool   `json:"isComingSoon"`
	DisplayName   string `json:"displayName"`
}

type CountryFYear struct {
	ID    int    `json:"id"`
	FYear string `json:"fYear"`
}

type CountryFYearDetails struct {
	TimeZoneIDs   []string       `json:"timeZoneIds"`
	CountryFYears []CountryFYear `json:"countryFYears"`
	LocalCurrency string         `json:"localCurrency"`
}

type UserDefaultFYearDetails struct {
	ID                            *int    `json:"id"`
	FYearText                     string  `json:"fYearText"`
	FYearStart                    *string `json:"fYearStart"`
	FYearEnd                      *string `json:"fYearEnd"`
	SelectedWizardStep            string  `json:"selectedWizardStep"`
	LocalCurrency                 string  `json:"localCurrency"`
	TimeZoneID                    string  `json:"timeZoneId"`
	NeedsNewSubscription          bool    `json:"needsNewSubscription"`
	NewSubscriptionCountryID      *int    `json:"newSubscriptionCountryId"`
	NewSubscriptionCountryFYearID *int    `json:"newSubscriptionCountryFYearId"`
}

type SubscribeToFYearRequest struct {
	CountryFYearID int    `json:"countryFYearId"`
	TimeZoneID     string `json:"timeZoneId"`
}

type OpeningBalanceImportType struct {
	OpeningBalanceImportTypeID int          `json:"openingBalanceImportTypeId"`
	ImportType                 string       `json:"importType"`
	ImportName                 string       `json:"importName"`
	ImportHTMLDescription      string       `json:"importHtmlDescription"`
	CsvSettings                *CsvSettings `json:"csvSettings"`
}

type OpeningBalance struct {
	ID                  int     `json:"id"`
	Source              string  `json:"source"`
	Coin                string  `json:"coin"`
	CoinContractAddress string  `json:"coinContractAddress"`
	NftTokenID          string  `json:"nftTokenId"`
	Qty                 float64 `json:"qty"`
	Cost                float64 `json:"cost"`
	BoughtDate          string  `json:"boughtDate"`
	QtyDisplay          string  `json:"qtyDisplay"`
	CostDisplay         string  `json:"costDisplay"`
	Status              string  `json:"status"`
}

type ReviewRecord struct {
	TxHistoryID                    int             `json:"txHistoryId"`
	Direction                      string          `json:"direction"`
	TxDateUTC                      string          `json:"txDateUtc"`
	TxDateLocal                    string          `json:"txDateLocal"`
	Coin                           string          `json:"coin"`
	Qty                            float64         `json:"qty"`
	Value                          float64         `json:"value"`
	QtyDisplay                     string          `json:"qtyDisplay"`
	NetDisplay                     string          `json:"netDisplay"`
	Currency                       string          `json:"currency"`
	OrderNo                        string          `json:"orderNo"`
	OrderNoURL                     string          `json:"orderNoUrl"`
	ExchangeName                   string          `json:"exchangeName"`
	ExchangeIdentifier             string          `json:"exchangeIdentifier"`
	SubExchangeName                string          `json:"subExchangeName"`
	Commission                     float64         `json:"commission"`
	CommissionCoin                 string          `json:"commissionCoin"`
	TradeType                      int             `json:"tradeType"`
	CorrespondingRecordsSameSymbol json.RawMessage `json:"correspondingRecordsSameSymbol"`
	CorrespondingRecordsSameValue  json.RawMessage `json:"correspondingRecordsSameValue"`
}

type ReviewRecordEdit struct {
	Options        json.RawMessage `json:"options"`
	RelatedRecords json.RawMessage `json:"relatedRecords"`
}

type ReviewRecordUpdate struct {
	ConvertedTxHistoryIDs   []int           `json:"convertedTxHistoryIds"`
	ErroredTxHistoryIDInfos json.RawMessage `json:"erroredTxHistoryIdInfos"`
}

type TaxCalculation struct {
	CalculationMethod                     int    `json:"calculationMethod"`
	CalculationMethodDisplay              string `json:"calculationMethodDisplay"`
	ApplyCgtDiscount                      bool   `json:"applyCgtDiscount"`
	ShowRunningBalanceForMoreSoldThanBuys bool   `json:"showRunningBalanceForMoreSoldThanBuys"`
	ApplyCgtDiscountText                  string `json:"applyCgtDiscountText"`
	CanApplyCgtDiscount                   bool   `json:"canApplyCgtDiscount"`
}

type PnLEntry struct {
	Coin       string  `json:"coin"`
	CostBasis  float64 `json:"costBasis"`
	Proceeds   float64 `json:"proceeds"`
	PnL        float64 `json:"pnl"`
	CbQty      float64 `json:"cbQty"`
	CbValue    float64 `json:"cbValue"`
	MstbQty    float64 `json:"mstbQty"`
	MstbValue  float64 `json:"mstbValue"`
	IsNft      bool    `json:"isNft"`
	IsIncOrExp bool    `json:"isIncOrExp"`
}

type PnLSummary struct {
	Entries                      []PnLEntry `json:"entries"`
	MoreSoldThanBoughtValueTotal float64    `json:"moreSoldThanBoughtValueTotal"`
	PnLTotal                     float64    `json:"pnLTotal"`
	CostBasisTotal               float64    `json:"costBasisTotal"`
	ProceedsTotal                float64    `json:"proceedsTotal"`
	ClosingBalanceValueTotal     float64    `json:"closingBalanceValueTotal"`
}

type TaxReportInfo struct {
	MethodUsed string          `json:"methodUsed"`
	Reports    []TaxReportData `json:"reports"`
}

type TaxReportData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DownloadURL string `json:"downloadUrl"`
	ReportType  int    `json:"reportType"`
}
