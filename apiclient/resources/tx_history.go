package resources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/taxfolio-client/apiclient"
)

type TxHistoryImportResource struct {
	f *apiclient.Fetcher
}

// Csv uploads an exchange export. The payload is multipart, so no JSON content type is sent.
func (r *TxHistoryImportResource) Csv(ctx context.Context, fields map[string]string, files ...apiclient.FormFile) ([]TransactionImport, error) {
	return apiclient.Do[[]TransactionImport](ctx, r.f, http.MethodPost, "/TxHistory/Import/Exchange/Csv", nil,
		apiclient.WithMultipart(fields, files...))
}

func (r *TxHistoryImportResource) Address(ctx context.Context, payload any) ([]TransactionImport, error) {
	return apiclient.Do[[]TransactionImport](ctx, r.f, http.MethodPost, "/TxHistory/Import/Exchange/Address", payload)
}

func (r *TxHistoryImportResource) API(ctx context.Context, payload any) ([]TransactionImport, error) {
	return apiclient.Do[[]TransactionImport](ctx, r.f, http.MethodPost, "/TxHistory/Import/Exchange/API", payload)
}

func (r *TxHistoryImportResource) TransactionsByIdentifiers(ctx context.Context, fYearID, exchangeID int, identifiers []string) (TransactionImport, error) {
	body := map[string][]string{"txHistoryIdentifiers": identifiers}
	return apiclient.Do[TransactionImport](ctx, r.f, http.MethodPost,
		pathf("/TxHistory/import/TxHistory/Exchange/%d/fyearId/%d", exchangeID, fYearID), body)
}

// Requeue asks the backend to process a failed import source again.
func (r *TxHistoryImportResource) Requeue(ctx context.Context, fYearID int, sourceExternalID string) (TransactionImport, error) {
	body := map[string]string{"txHistorySourceExternalIdentifier": sourceExternalID}
	return apiclient.Do[TransactionImport](ctx, r.f, http.MethodPost, pathf("/TxHistory/import/Requeue/fyearId/%d", fYearID), body)
}

type TxHistorySourceResource struct {
	f *apiclient.Fetcher
}

func (r *TxHistorySourceResource) Metadata(ctx context.Context, fYearID int, sourceExternalID string) (TransactionMetadata, error) {
	return apiclient.Do[TransactionMetadata](ctx, r.f, http.MethodGet,
		pathf("/TxHistorySource/Metadata/%s/fyearId/%d", sourceExternalID, fYearID), nil)
}

func (r *TxHistorySourceResource) List(ctx context.Context, fYearID int) ([]TransactionImport, error) {
	return apiclient.Do[[]TransactionImport](ctx, r.f, http.MethodGet, pathf("/TxHistorySource/List/%d", fYearID), nil)
}

// Get returns the list filtered to a single source.
func (r *TxHistorySourceResource) Get(ctx context.Context, fYearID int, sourceExternalID string) ([]TransactionImport, error) {
	return apiclient.Do[[]TransactionImport](ctx, r.f, http.MethodGet, pathf("/TxHistorySource/List/%d", fYearID), nil,
		apiclient.WithQuery("txHistorySourceExternalIdentifier", sourceExternalID))
}

func (r *TxHistorySourceResource) Transactions(ctx context.Context, fYearID int, sourceExternalID string, query url.Values) (Page[Transaction], error) {
	return apiclient.Do[Page[Transaction]](ctx, r.f, http.MethodGet,
		pathf("/TxHistory/Import/TxHistorySource/%s/fyearId/%d", sourceExternalID, fYearID), nil, queryOption(query))
}

func (r *TxHistorySourceResource) Delete(ctx context.Context, fYearID int, sourceExternalID string) error {
	return r.f.Call(ctx, http.MethodDelete, pathf("/TxHistorySource/%s/fYearId/%d", sourceExternalID, fYearID), nil, nil)
}
