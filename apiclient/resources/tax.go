package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type TaxCalculatorResource struct {
	f *apiclient.Fetcher
}

func (r *TaxCalculatorResource) Get(ctx context.Context, fYearID int, query url.Values) (TaxCalculation, error) {
	return apiclient.Do[TaxCalculation](ctx, r.f, http.MethodGet, pathf("/TaxEngine/Calculate/fyearId/%d", fYearID), nil, queryOption(query))
}

func (r *TaxCalculatorResource) Update(ctx context.Context, fYearID int, payload any) error {
	return r.f.Call(ctx, http.MethodPost, pathf("/TaxEngine/Calculate/fyearId/%d", fYearID), payload, nil)
}

func (r *TaxCalculatorResource) PnLSummary(ctx context.Context, fYearID int, query url.Values) (PnLSummary, error) {
	return apiclient.Do[PnLSummary](ctx, r.f, http.MethodGet, pathf("/TaxEngine/PnLSummary/fYearId/%d", fYearID), nil, queryOption(query))
}

type TaxReportResource struct {
	f *apiclient.Fetcher
}

func (r *TaxReportResource) Info(ctx context.Context, fYearID int, query url.Values) (TaxReportInfo, error) {
	return apiclient.Do[TaxReportInfo](ctx, r.f, http.MethodGet, pathf("/TaxReport/Info/fyearId/%d", fYearID), nil, queryOption(query))
}

// Download fetches a report from the absolute downloadUrl returned by Info.
func (r *TaxReportResource) Download(ctx context.Context, downloadURL string) (*apiclient.Blob, error) {
	return r.f.CallBlob(ctx, http.MethodGet, downloadURL, nil, apiclient.WithoutContentType())
}
