package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type OpeningBalanceResource struct {
	f *apiclient.Fetcher
}

func (r *OpeningBalanceResource) List(ctx context.Context, fYearID int, query url.Values) (Page[OpeningBalance], error) {
	return apiclient.Do[Page[OpeningBalance]](ctx, r.f, http.MethodGet, pathf("/OpeningBalance/List/fYearId/%d", fYearID), nil, queryOption(query))
}

func (r *OpeningBalanceResource) ImportTypes(ctx context.Context, fYearID int) ([]OpeningBalanceImportType, error) {
	return apiclient.Do[[]OpeningBalanceImportType](ctx, r.f, http.MethodGet, pathf("/OpeningBalance/List/ImportTypes/fYearId/%d", fYearID), nil)
}

func (r *OpeningBalanceResource) Filters(ctx context.Context, fYearID int) (Filters, error) {
	return apiclient.Do[Filters](ctx, r.f, http.MethodGet, pathf("/OpeningBalance/List/Filters/fYearId/%d", fYearID), nil)
}

func (r *OpeningBalanceResource) Import(ctx context.Context, fields map[string]string, files ...apiclient.FormFile) (OpeningBalance, error) {
	return apiclient.Do[OpeningBalance](ctx, r.f, http.MethodPost, "/OpeningBalance/Import", nil, apiclient.WithMultipart(fields, files...))
}

// Delete removes the opening balances selected by payload.
func (r *OpeningBalanceResource) Delete(ctx context.Context, fYearID int, payload any) error {
	return r.f.Call(ctx, http.MethodDelete, pathf("/OpeningBalance/Delete/fYearId/%d", fYearID), payload, nil, apiclient.WithoutContentType())
}
