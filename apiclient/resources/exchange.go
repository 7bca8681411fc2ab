package resources

import (
	"context"
	"net/http"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type ExchangeResource struct {
	f *apiclient.Fetcher
}

func (r *ExchangeResource) List(ctx context.Context) ([]Exchange, error) {
	return apiclient.Do[[]Exchange](ctx, r.f, http.MethodGet, "/Exchange/List", nil)
}

// ImportTypes lists the ways the exchange's history can be imported for a financial year.
func (r *ExchangeResource) ImportTypes(ctx context.Context, exchangeID, userFYearID int) ([]ImportConfig, error) {
	return apiclient.Do[[]ImportConfig](ctx, r.f, http.MethodGet, pathf("/Exchange/%d/ListImportTypes", exchangeID), nil,
		apiclient.WithQuery("userFYearId", itoa(userFYearID)))
}
