package resources

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

// API bundles every backend resource behind one Fetcher.
type API struct {
	Exchange        *ExchangeResource
	TxHistoryImport *TxHistoryImportResource
	TxHistorySource *TxHistorySourceResource
	SpamCoin        *SpamCoinResource
	User            *UserResource
	OpeningBalance  *OpeningBalanceResource
	ReviewRecords   *ReviewRecordsResource
	TaxCalculator   *TaxCalculatorResource
	TaxReport       *TaxReportResource
	Identity        *IdentityResource
}

func New(f *apiclient.Fetcher) *API {
	return &API{
		Exchange:        &ExchangeResource{f: f},
		TxHistoryImport: &TxHistoryImportResource{f: f},
		TxHistorySource: &TxHistorySourceResource{f: f},
		SpamCoin:        &SpamCoinResource{f: f},
		User:            &UserResource{f: f},
		OpeningBalance:  &OpeningBalanceResource{f: f},
		ReviewRecords:   &ReviewRecordsResource{f: f},
		TaxCalculator:   &TaxCalculatorResource{f: f},
		TaxReport:       &TaxReportResource{f: f},
		Identity:        &IdentityResource{f: f},
	}
}

func pathf(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = url.PathEscape(v)
		default:
			escaped[i] = v
		}
	}
	return fmt.Sprintf(format, escaped...)
}

// queryOption forwards optional list query parameters (paging, sorting, filters).
func queryOption(q url.Values) apiclient.CallOption {
	return apiclient.WithQueryValues(q)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
