package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type UserResource struct {
	f *apiclient.Fetcher
}

func (r *UserResource) Countries(ctx context.Context) ([]Country, error) {
	return apiclient.Do[[]Country](ctx, r.f, http.MethodGet, "/User/GetCountries", nil)
}

func (r *UserResource) DefaultFYearDetails(ctx context.Context) (UserDefaultFYearDetails, error) {
	return apiclient.Do[UserDefaultFYearDetails](ctx, r.f, http.MethodGet, "/User/GetUserDefaultFYearDetails", nil)
}

func (r *UserResource) CountryFYearDetails(ctx context.Context, query url.Values) (CountryFYearDetails, error) {
	return apiclient.Do[CountryFYearDetails](ctx, r.f, http.MethodGet, "/User/GetCountryFYearDetails", nil, queryOption(query))
}

func (r *UserResource) SubscribeToFYear(ctx context.Context, req SubscribeToFYearRequest) (UserDefaultFYearDetails, error) {
	return apiclient.Do[UserDefaultFYearDetails](ctx, r.f, http.MethodPost, "/User/SubscribeToFYear", req)
}
