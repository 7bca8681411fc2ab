package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type SpamCoinResource struct {
	f *apiclient.Fetcher
}

func (r *SpamCoinResource) List(ctx context.Context, fYearID int, query url.Values) (Page[CoinInfo], error) {
	return apiclient.Do[Page[CoinInfo]](ctx, r.f, http.MethodGet, pathf("/SpamCoin/List/fYearId/%d", fYearID), nil, queryOption(query))
}

func (r *SpamCoinResource) Filters(ctx context.Context, fYearID int) (Filters, error) {
	return apiclient.Do[Filters](ctx, r.f, http.MethodGet, pathf("/SpamCoin/List/Filters/fYearId/%d", fYearID), nil)
}

func (r *SpamCoinResource) MarkAsSpam(ctx context.Context, fYearID int, marks []SpamMark) error {
	return r.f.Call(ctx, http.MethodPost, pathf("/SpamCoin/Batch/fYearId/%d", fYearID), marks, nil)
}
