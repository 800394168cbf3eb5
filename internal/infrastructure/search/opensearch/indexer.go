package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const defaultBatchSize = 500

// entryMapping keeps identifiers as keywords so exact WO and national
// numbers can be looked up.
const entryMapping = `{
  "mappings": {
    "properties": {
      "run_id":                 {"type": "keyword"},
      "wo_number":              {"type": "keyword"},
      "provenance":             {"type": "keyword"},
      "title":                  {"type": "text"},
      "assignees":              {"type": "keyword"},
      "family_id":              {"type": "keyword"},
      "jurisdictions":          {"type": "keyword"},
      "national_patents":       {"type": "keyword"},
      "earliest_expiration":    {"type": "date", "format": "yyyy-MM-dd", "ignore_malformed": true},
      "years_until_expiration": {"type": "float"},
      "total_national_patents": {"type": "integer"},
      "indexed_at":             {"type": "date"}
    }
  }
}`

// EntryDocument is the indexed form of a WO entry.
type EntryDocument struct {
	RunID                string    `json:"run_id"`
	WONumber             string    `json:"wo_number"`
	Provenance           string    `json:"provenance"`
	Title                string    `json:"title,omitempty"`
	Assignees            []string  `json:"assignees,omitempty"`
	FamilyID             string    `json:"family_id,omitempty"`
	Jurisdictions        []string  `json:"jurisdictions"`
	NationalPatents      []string  `json:"national_patents"`
	EarliestExpiration   string    `json:"earliest_expiration,omitempty"`
	YearsUntilExpiration *float64  `json:"years_until_expiration,omitempty"`
	TotalNationalPatents int       `json:"total_national_patents"`
	IndexedAt            time.Time `json:"indexed_at"`
}

// NewEntryDocument flattens e for indexing.
func NewEntryDocument(runID string, e domainCons.WOEntry, at time.Time) EntryDocument {
	nationals := e.Nationals()
	numbers := make([]string, 0, len(nationals))
	for _, n := range nationals {
		numbers = append(numbers, n.PatentNumber)
	}
	return EntryDocument{
		RunID:                runID,
		WONumber:             e.WONumber,
		Provenance:           string(e.Provenance),
		Title:                e.WOData.Title,
		Assignees:            e.WOData.Assignees,
		FamilyID:             e.WOData.FamilyID,
		Jurisdictions:        e.Jurisdictions(),
		NationalPatents:      numbers,
		EarliestExpiration:   e.PatentCliffImpact.EarliestExpiration,
		YearsUntilExpiration: e.PatentCliffImpact.YearsUntilExpiration,
		TotalNationalPatents: e.PatentCliffImpact.TotalNationalPatents,
		IndexedAt:            at,
	}
}

// Indexer bulk-indexes WO entries.  Document ids are "{run}:{wo}" so
// re-indexing a run overwrites instead of duplicating.
type Indexer struct {
	client    *Client
	index     string
	batchSize int
	logger    logging.Logger
	now       func() time.Time
}

func NewIndexer(client *Client, index string, logger logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{
		client:    client,
		index:     index,
		batchSize: defaultBatchSize,
		logger:    logger.Named("indexer"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}
	resp, err := exists.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to check index existence")
	}
	resp.Body.Close()
	switch resp.StatusCode {
	case 200:
		return nil
	case 404:
	default:
		return errors.Newf(errors.ErrCodeSearchError, "index existence check returned %d", resp.StatusCode)
	}

	create := opensearchapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader([]byte(entryMapping))}
	resp, err = create.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, "index creation failed")
	}
	i.logger.Info("index created", logging.String("index", i.index))
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexEntries writes entries in batches.  Item failures are counted and
// reported as one error after every batch has been attempted.
func (i *Indexer) IndexEntries(ctx context.Context, runID string, entries []domainCons.WOEntry) error {
	if len(entries) == 0 {
		return nil
	}
	at := i.now()
	var failed int
	var firstReason string

	for start := 0; start < len(entries); start += i.batchSize {
		end := min(start+i.batchSize, len(entries))

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, e := range entries[start:end] {
			meta := map[string]map[string]string{"index": {"_index": i.index, "_id": runID + ":" + e.WONumber}}
			if err := enc.Encode(meta); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode bulk action")
			}
			if err := enc.Encode(NewEntryDocument(runID, e, at)); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode entry")
			}
		}

		req := opensearchapi.BulkRequest{Body: &buf}
		resp, err := req.Do(ctx, i.client.client)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSearchError, "bulk request failed")
		}
		n, reason, err := readBulkResponse(resp)
		if err != nil {
			return err
		}
		failed += n
		if firstReason == "" {
			firstReason = reason
		}
	}

	i.logger.Debug("entries indexed",
		logging.String(logging.FieldRunID, runID),
		logging.Int("total", len(entries)),
		logging.Int("failed", failed))
	if failed > 0 {
		return errors.Newf(errors.ErrCodeSearchError, "%d of %d entries failed to index", failed, len(entries)).WithDetail(firstReason)
	}
	return nil
}

func readBulkResponse(resp *opensearchapi.Response) (int, string, error) {
	defer resp.Body.Close()
	if resp.IsError() {
		return 0, "", responseError(resp, "bulk batch failed")
	}
	var br bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return 0, "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}
	if !br.Errors {
		return 0, "", nil
	}
	var failed int
	var reason string
	for _, item := range br.Items {
		for _, v := range item {
			if v.Status >= 200 && v.Status < 300 {
				continue
			}
			failed++
			if reason == "" {
				reason = v.ID + ": " + v.Error.Type + ": " + v.Error.Reason
			}
		}
	}
	return failed, reason, nil
}

func responseError(resp *opensearchapi.Response, msg string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.Newf(errors.ErrCodeSearchError, "%s: status %d", msg, resp.StatusCode).WithDetail(string(body))
}

//Personal.AI order the ending
