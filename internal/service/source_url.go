package service

import (
	"context"

	"note_ingest/internal/domain"
)

// URLResolver recovers the page URL for a callback, or returns "".
type URLResolver func(ctx context.Context, jobID string, doc domain.ResultDocument) string

// MetadataSourceURL reads metadata.sourceURL.
func MetadataSourceURL(_ context.Context, _ string, doc domain.ResultDocument) string {
	url, _ := doc.Metadata["sourceURL"].(string)
	return url
}

// DocumentURL reads the document's top-level url.
func DocumentURL(_ context.Context, _ string, doc domain.ResultDocument) string {
	return doc.URL
}

// LedgerURL looks up the URL recorded when the job was submitted.
func LedgerURL(jobs JobStore) URLResolver {
	return func(ctx context.Context, jobID string, _ domain.ResultDocument) string {
		if jobID == "" {
			return ""
		}
		url, err := jobs.SourceURL(ctx, jobID)
		if err != nil {
			return ""
		}
		return url
	}
}

// ResolveSourceURL returns the first non-empty result of resolvers, in order,
// falling back to domain.UnknownURL.
func ResolveSourceURL(ctx context.Context, jobID string, doc domain.ResultDocument, resolvers ...URLResolver) string {
	for _, resolve := range resolvers {
		if url := resolve(ctx, jobID, doc); url != "" {
			return url
		}
	}
	return domain.UnknownURL
}
