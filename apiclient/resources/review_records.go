package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type ReviewRecordsResource struct {
	f *apiclient.Fetcher
}

func (r *ReviewRecordsResource) List(ctx context.Context, fYearID int, query url.Values) (Page[ReviewRecord], error) {
	return apiclient.Do[Page[ReviewRecord]](ctx, r.f, http.MethodGet, pathf("/ReviewRecords/List/fyearId/%d", fYearID), nil, queryOption(query))
}

func (r *ReviewRecordsResource) Filters(ctx context.Context, fYearID int) (Filters, error) {
	return apiclient.Do[Filters](ctx, r.f, http.MethodGet, pathf("/ReviewRecords/List/Filters/fYearId/%d", fYearID), nil)
}

func (r *ReviewRecordsResource) GetEdit(ctx context.Context, fYearID int, payload any) (ReviewRecordEdit, error) {
	return apiclient.Do[ReviewRecordEdit](ctx, r.f, http.MethodPost, pathf("/ReviewRecords/GetEdit/fYearId/%d", fYearID), payload)
}

func (r *ReviewRecordsResource) Update(ctx context.Context, fYearID int, payload any) (ReviewRecordUpdate, error) {
	return apiclient.Do[ReviewRecordUpdate](ctx, r.f, http.MethodPost, pathf("/ReviewRecords/Edit/fYearId/%d", fYearID), payload)
}
